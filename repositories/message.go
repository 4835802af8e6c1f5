package repositories

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"

	"chat-hub/domain"
	apperrors "chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

// BadgerStore persists messages, membership snapshots and read cursors
// in BadgerDB.
//
// Key layout:
//
//	seq:{room}          8-byte big-endian per-conversation counter
//	msg:{room}:{seq}    message payload, seq zero-padded to 19 digits
//	members:{room}      JSON list of user ids
//	read:{room}:{user}  8-byte big-endian read cursor
//
// The padded sequence keeps messages lexicographically ordered so a
// prefix scan returns them in total order without sorting.
var _ Store = (*BadgerStore)(nil)

type BadgerStore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBadgerStore(db *badger.DB, log *slog.Logger) *BadgerStore {
	return &BadgerStore{db: db, log: log}
}

func messageKey(room domain.ConversationID, seq uint64) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d", room, seq))
}

func sequenceKey(room domain.ConversationID) []byte {
	return []byte(fmt.Sprintf("seq:%s", room))
}

func membersKey(room domain.ConversationID) []byte {
	return []byte(fmt.Sprintf("members:%s", room))
}

func cursorKey(room domain.ConversationID, user domain.UserID) []byte {
	return []byte(fmt.Sprintf("read:%s:%s", room, user))
}

// AppendMessage advances the conversation counter and records the
// message under the new sequence in a single transaction. The counter
// read and the message write committing together is what makes the
// sequence gap-free: a failed append leaves the counter untouched.
func (s *BadgerStore) AppendMessage(ctx context.Context, msg DiskMessage) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrPersistenceFailure, err)
	}
	room := domain.ConversationID(msg.Room)
	var seq uint64
	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := readUint64(txn, sequenceKey(room))
		if err != nil {
			return err
		}
		seq = current + 1
		msg.Sequence = seq

		bytes, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		if err = txn.Set(sequenceKey(room), encodeUint64(seq)); err != nil {
			return err
		}
		return txn.Set(messageKey(room, seq), bytes)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: append to %s: %w", apperrors.ErrPersistenceFailure, room, err)
	}
	return seq, nil
}

// FetchHistory returns all messages with a sequence strictly greater
// than sinceSequence, in sequence order.
func (s *BadgerStore) FetchHistory(ctx context.Context, room domain.ConversationID, sinceSequence uint64) ([]DiskMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrPersistenceFailure, err)
	}
	var raw [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", room))
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(messageKey(room, sinceSequence+1)); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: history of %s: %w", apperrors.ErrPersistenceFailure, room, err)
	}

	messages := make([]DiskMessage, 0, len(raw))
	for _, b := range raw {
		var msg DiskMessage
		if err = json.Unmarshal(b, &msg); err != nil {
			return nil, fmt.Errorf("%w: decode message in %s: %w", apperrors.ErrPersistenceFailure, room, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *BadgerStore) FetchMembership(ctx context.Context, room domain.ConversationID) (map[domain.UserID]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrMembershipUnavailable, err)
	}
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(membersKey(room))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &ids)
		})
	})
	switch err {
	case nil:
	case badger.ErrKeyNotFound:
		// An unknown conversation has no members, which the room
		// manager turns into NotAMember for any actor.
		return map[domain.UserID]struct{}{}, nil
	default:
		return nil, fmt.Errorf("%w: membership of %s: %w", apperrors.ErrMembershipUnavailable, room, err)
	}

	members := make(map[domain.UserID]struct{}, len(ids))
	for _, id := range ids {
		members[domain.UserID(id)] = struct{}{}
	}
	return members, nil
}

func (s *BadgerStore) PutMembership(ctx context.Context, room domain.ConversationID, users []domain.UserID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrPersistenceFailure, err)
	}
	ids := lo.Map(users, func(u domain.UserID, _ int) string { return string(u) })
	bytes, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(membersKey(room), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: put membership of %s: %w", apperrors.ErrPersistenceFailure, room, err)
	}
	return nil
}

// UpdateReadCursor advances the reader's cursor. Cursors only move
// forward; an acknowledgement older than the stored one is dropped.
func (s *BadgerStore) UpdateReadCursor(ctx context.Context, room domain.ConversationID, user domain.UserID, sequence uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrPersistenceFailure, err)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := readUint64(txn, cursorKey(room, user))
		if err != nil {
			return err
		}
		if sequence <= current {
			s.log.Debug("read cursor behind stored position, ignoring",
				"room", room, "user", user, "sequence", sequence, "stored", current)
			return nil
		}
		return txn.Set(cursorKey(room, user), encodeUint64(sequence))
	})
	if err != nil {
		return fmt.Errorf("%w: read cursor of %s in %s: %w", apperrors.ErrPersistenceFailure, user, room, err)
	}
	return nil
}

func (s *BadgerStore) ReadCursor(ctx context.Context, room domain.ConversationID, user domain.UserID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", apperrors.ErrPersistenceFailure, err)
	}
	var cursor uint64
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		cursor, err = readUint64(txn, cursorKey(room, user))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: read cursor of %s in %s: %w", apperrors.ErrPersistenceFailure, user, room, err)
	}
	return cursor, nil
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func readUint64(txn *badger.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	switch err {
	case nil:
	case badger.ErrKeyNotFound:
		return 0, nil
	default:
		return 0, err
	}
	var v uint64
	err = item.Value(func(value []byte) error {
		if len(value) != 8 {
			return fmt.Errorf("corrupt counter at %s", key)
		}
		v = binary.BigEndian.Uint64(value)
		return nil
	})
	return v, err
}
