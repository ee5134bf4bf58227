package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Record Store keys. Each key holds one JSON encoded collection (or a singleton value).
const (
	KeyUsers               = "users"
	KeyClasses             = "classes"
	KeyStudents            = "students"
	KeyActivities          = "activities"
	KeyGrades              = "grades"
	KeyEnrollments         = "enrollments"
	KeyFeedbacks           = "feedbacks"
	KeyQuizAttempts        = "quizAttempts"
	KeyAutoBackup          = "autoBackup"
	KeyBackupTimestamp     = "backupTimestamp"
	KeyAutoBackupTimestamp = "autoBackupTimestamp"
	KeyLogo                = "logo"
	KeyAdminSeeded         = "adminSeeded"
)

// RejectAllWrites is a backend quota under which every write is rejected.
const RejectAllWrites int64 = -1

// AllKeys lists every key of the Record Store namespace.
var AllKeys = []string{
	KeyUsers, KeyClasses, KeyStudents, KeyActivities, KeyGrades, KeyEnrollments, KeyFeedbacks,
	KeyQuizAttempts, KeyAutoBackup, KeyBackupTimestamp, KeyAutoBackupTimestamp, KeyLogo, KeyAdminSeeded,
}

// KVStore is the durable backend of the Record Store.
// Load returns ErrKeyNotFound when nothing is stored under key;
// Save returns ErrStorageFull when the backend rejects the write for lack of space.
type KVStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Records is the Record Store: get-all/replace-all access to named collections.
// The last full-collection write for a key wins; writes are never merged.
type Records struct {
	kv     KVStore
	logger Logger
}

func NewRecords(kv KVStore, logger Logger) *Records {
	return &Records{kv: kv, logger: logger}
}

// GetCollection returns every item stored under key.
// An absent key or undecodable content yields an empty collection.
func GetCollection[T any](ctx context.Context, rs *Records, key string) []T {
	items := make([]T, 0)
	data, err := rs.kv.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			rs.logger.Warn(fmt.Sprintf("loading collection %q: %v", key, err), err)
		}
		return items
	}
	if err = json.Unmarshal(data, &items); err != nil {
		rs.logger.Warn(fmt.Sprintf("corrupt collection %q treated as empty", key), err)
		return make([]T, 0)
	}
	if items == nil {
		items = make([]T, 0)
	}
	return items
}

// SetCollection replaces the whole collection stored under key.
// It returns false if the write was rejected.
func SetCollection[T any](ctx context.Context, rs *Records, key string, items []T) bool {
	if items == nil {
		items = make([]T, 0)
	}
	return rs.SetValue(ctx, key, items)
}

// GetValue decodes the singleton value stored under key into dest.
// It returns false if the key is absent or its content is corrupt.
func (rs *Records) GetValue(ctx context.Context, key string, dest interface{}) bool {
	data, err := rs.kv.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			rs.logger.Warn(fmt.Sprintf("loading %q: %v", key, err), err)
		}
		return false
	}
	if err = json.Unmarshal(data, dest); err != nil {
		rs.logger.Warn(fmt.Sprintf("corrupt value %q treated as absent", key), err)
		return false
	}
	return true
}

// SetValue encodes v and stores it under key. It returns false if the write was rejected.
func (rs *Records) SetValue(ctx context.Context, key string, v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		rs.logger.Error(fmt.Sprintf("encoding %q", key), errors.Wrap(err, "encoding value"))
		return false
	}
	if err = rs.kv.Save(ctx, key, data); err != nil {
		if errors.Is(err, ErrStorageFull) {
			rs.logger.Warn(fmt.Sprintf("storage full: %q not saved", key), err)
		} else {
			rs.logger.Error(fmt.Sprintf("saving %q", key), errors.Wrap(err, "saving value"))
		}
		return false
	}
	return true
}

// Remove deletes the value stored under key. Removing an absent key succeeds.
func (rs *Records) Remove(ctx context.Context, key string) bool {
	if err := rs.kv.Remove(ctx, key); err != nil && !errors.Is(err, ErrKeyNotFound) {
		rs.logger.Error(fmt.Sprintf("removing %q", key), errors.Wrap(err, "removing value"))
		return false
	}
	return true
}

// Save is SetCollection for repositories: a rejected write becomes ErrStorageFull.
func Save[T any](ctx context.Context, rs *Records, key string, items []T) error {
	if !SetCollection(ctx, rs, key, items) {
		return errors.Wrapf(ErrStorageFull, "saving %s", key)
	}
	return nil
}
