package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	signedOutKey     = "signed_out"
	friendsKeyPrefix = "friends:"
)

// GetValue returns a local cache entry. ok is false when the key is absent.
func (db *DB) GetValue(key string) (value string, ok bool, err error) {
	err = db.QueryRow(`SELECT value FROM local_cache WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// PutValue upserts a local cache entry.
func (db *DB) PutValue(key, value string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO local_cache (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// DeleteValue removes a local cache entry.
func (db *DB) DeleteValue(key string) error {
	_, err := db.Exec(`DELETE FROM local_cache WHERE key = ?`, key)
	return err
}

// LoadFriends returns the cached friend set of uid. A missing entry is an empty set.
func (db *DB) LoadFriends(uid string) (map[string]bool, error) {
	raw, ok, err := db.GetValue(friendsKeyPrefix + uid)
	if err != nil || !ok {
		return map[string]bool{}, err
	}
	friends := map[string]bool{}
	if err := json.Unmarshal([]byte(raw), &friends); err != nil {
		return map[string]bool{}, fmt.Errorf("decode cached friends: %w", err)
	}
	return friends, nil
}

// SaveFriends replaces the cached friend set of uid.
func (db *DB) SaveFriends(uid string, friends map[string]bool) error {
	raw, err := json.Marshal(friends)
	if err != nil {
		return err
	}
	return db.PutValue(friendsKeyPrefix+uid, string(raw))
}

// SignedOut reports whether the last session ended with an explicit sign-out.
func (db *DB) SignedOut() (bool, error) {
	raw, ok, err := db.GetValue(signedOutKey)
	if err != nil || !ok {
		return false, err
	}
	return raw == "true", nil
}

// SetSignedOut records how the session ended.
func (db *DB) SetSignedOut(v bool) error {
	if v {
		return db.PutValue(signedOutKey, "true")
	}
	return db.PutValue(signedOutKey, "false")
}
