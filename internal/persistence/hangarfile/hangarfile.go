// Package hangarfile stores one PlayerHangar per account on disk, plus the
// compressed grid definition blobs referenced by its stamps. File format is
// a JSON header line followed by a gob body, the whole stream zstd
// compressed.
package hangarfile

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"gridhangar/internal/hangar"
)

const formatVersion = 1

type header struct {
	Version   int   `json:"version"`
	AccountID int64 `json:"account_id"`
}

// Store reads and writes hangar files under a data directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) hangarPath(accountID int64) string {
	return filepath.Join(s.dir, "hangars", fmt.Sprintf("%d.hgr", accountID))
}

func (s *Store) blobPath(accountID, gridID int64) string {
	return filepath.Join(s.dir, "grids", fmt.Sprintf("%d", accountID), fmt.Sprintf("%d.def.zst", gridID))
}

// Load returns the account's hangar, creating an empty one lazily when no
// file exists yet.
func (s *Store) Load(accountID int64) (*hangar.PlayerHangar, error) {
	f, err := os.Open(s.hangarPath(accountID))
	if err != nil {
		if os.IsNotExist(err) {
			return hangar.New(accountID), nil
		}
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	// Header line carries version/account for tooling; gob is authoritative.
	_, _ = br.ReadBytes('\n')

	var h hangar.PlayerHangar
	if err := gob.NewDecoder(br).Decode(&h); err != nil {
		return nil, fmt.Errorf("gob decode hangar %d: %w", accountID, err)
	}
	return &h, nil
}

// Save writes the hangar atomically (temp file + rename).
func (s *Store) Save(h *hangar.PlayerHangar) error {
	path := s.hangarPath(h.AccountID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, _ := json.Marshal(header{Version: formatVersion, AccountID: h.AccountID})
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(h); err != nil {
		_ = f.Close()
		return fmt.Errorf("gob encode hangar %d: %w", h.AccountID, err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// SaveBlob stores an already zstd-compressed grid definition.
func (s *Store) SaveBlob(accountID, gridID int64, blob []byte) error {
	path := s.blobPath(accountID, gridID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}

func (s *Store) LoadBlob(accountID, gridID int64) ([]byte, error) {
	return os.ReadFile(s.blobPath(accountID, gridID))
}

func (s *Store) DeleteBlob(accountID, gridID int64) error {
	err := os.Remove(s.blobPath(accountID, gridID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
