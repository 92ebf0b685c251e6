package world

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/boltdb/bolt"
	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrChunkNotFound is returned by Storage.Read when no record exists.
var ErrChunkNotFound = errors.New("chunk not found")

// IsNotExist reports whether err means the chunk has never been persisted.
func IsNotExist(err error) bool {
	return errors.Cause(err) == ErrChunkNotFound
}

// Storage persists encoded chunk records keyed by chunk coordinate.
type Storage interface {
	Read(id ChunkCoord) ([]byte, error)
	Write(id ChunkCoord, data []byte) error
	// Clear removes every persisted chunk.
	Clear() error
	// Path describes where the chunk lives, for logging and reports.
	Path(id ChunkCoord) string
	Close() error
}

// ChunkFileName returns the file name used for a chunk.
func ChunkFileName(id ChunkCoord) string {
	return fmt.Sprintf("chunk_%d_%d_%d.dat", id.X, id.Y, id.Z)
}

// FileStorage keeps one file per chunk in a directory.
type FileStorage struct {
	dir     string
	log     *zap.Logger
	digests map[ChunkCoord]uint64
}

func NewFileStorage(dir string, log *zap.Logger) (*FileStorage, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create world dir %s", dir)
	}
	return &FileStorage{dir: dir, log: log, digests: make(map[ChunkCoord]uint64)}, nil
}

func (s *FileStorage) Dir() string {
	return s.dir
}

func (s *FileStorage) Path(id ChunkCoord) string {
	return filepath.Join(s.dir, ChunkFileName(id))
}

func (s *FileStorage) Read(id ChunkCoord) ([]byte, error) {
	p := s.Path(id)
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, ErrChunkNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", p)
	}
	s.digests[id] = xxhash.Sum64(data)
	return data, nil
}

// Write stores data, skipping the write when the file already holds the
// same bytes.
func (s *FileStorage) Write(id ChunkCoord, data []byte) error {
	p := s.Path(id)
	sum := xxhash.Sum64(data)
	if old, ok := s.digests[id]; ok && old == sum {
		if _, err := os.Stat(p); err == nil {
			s.log.Debug("chunk unchanged", zap.String("path", p))
			return nil
		}
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		delete(s.digests, id)
		return errors.Wrapf(err, "write %s", p)
	}
	s.digests[id] = sum
	return nil
}

func (s *FileStorage) Clear() error {
	files, err := filepath.Glob(filepath.Join(s.dir, "*.dat"))
	if err != nil {
		return errors.Wrap(err, "list chunk files")
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return errors.Wrapf(err, "remove %s", f)
		}
	}
	s.digests = make(map[ChunkCoord]uint64)
	s.log.Info("cleared world dir", zap.String("dir", s.dir), zap.Int("files", len(files)))
	return nil
}

func (s *FileStorage) Close() error {
	return nil
}

var chunkBucket = []byte("chunk")

// BoltStorage keeps zstd compressed chunk records in a bolt database.
type BoltStorage struct {
	db   *bolt.DB
	path string
	log  *zap.Logger
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

func NewBoltStorage(p string, log *zap.Logger) (*BoltStorage, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(p); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "create dir %s", dir)
		}
	}
	db, err := bolt.Open(p, 0666, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", p)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(chunkBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create chunk bucket")
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "zstd writer")
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "zstd reader")
	}
	return &BoltStorage{db: db, path: p, log: log, enc: enc, dec: dec}, nil
}

func (s *BoltStorage) Path(id ChunkCoord) string {
	return fmt.Sprintf("%s#%s", s.path, ChunkFileName(id))
}

func (s *BoltStorage) Read(id ChunkCoord) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(chunkBucket).Get(encodeVec3(id))
		if v == nil {
			return ErrChunkNotFound
		}
		var err error
		data, err = s.dec.DecodeAll(v, nil)
		return errors.Wrapf(err, "decompress chunk %v", id)
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *BoltStorage) Write(id ChunkCoord, data []byte) error {
	value := s.enc.EncodeAll(data, nil)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(chunkBucket).Put(encodeVec3(id), value)
	})
}

func (s *BoltStorage) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(chunkBucket); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(chunkBucket)
		return err
	})
}

func (s *BoltStorage) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

// encodeVec3 is the bolt key: x, y, z as little-endian int32.
func encodeVec3(v Vec3) []byte {
	var key [12]byte
	binary.LittleEndian.PutUint32(key[0:], uint32(int32(v.X)))
	binary.LittleEndian.PutUint32(key[4:], uint32(int32(v.Y)))
	binary.LittleEndian.PutUint32(key[8:], uint32(int32(v.Z)))
	return key[:]
}
