// Read-only inspector for the coordinator's store. Dumps messages,
// membership snapshots and read cursors as a table, for debugging a
// live or post-mortem database.
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"chat-hub/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, members:, read:, seq:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Author", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				table.Append(toRow(key, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error while scanning: ", err)
	}
	table.Render()
}

func toRow(key string, value []byte) []string {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var msg repositories.DiskMessage
		if err := json.Unmarshal(value, &msg); err != nil {
			return []string{key, "MSG", "", "", fmt.Sprintf("unreadable: %v", err)}
		}
		return []string{key, "MSG", msg.At.Format(time.RFC822), msg.Author, msg.Content}

	case strings.HasPrefix(key, "members:"):
		var ids []string
		if err := json.Unmarshal(value, &ids); err != nil {
			return []string{key, "MEMBERS", "", "", fmt.Sprintf("unreadable: %v", err)}
		}
		return []string{key, "MEMBERS", "", "", strings.Join(ids, ", ")}

	case strings.HasPrefix(key, "read:"), strings.HasPrefix(key, "seq:"):
		if len(value) != 8 {
			return []string{key, "COUNTER", "", "", "corrupt"}
		}
		return []string{key, "COUNTER", "", "", fmt.Sprintf("%d", binary.BigEndian.Uint64(value))}

	default:
		return []string{key, "RAW", "", "", fmt.Sprintf("%d bytes", len(value))}
	}
}

// openDB opens read-only, bypassing the lock guard so a running
// coordinator does not block inspection.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	return badger.Open(opts)
}
