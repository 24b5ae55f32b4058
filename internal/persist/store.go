package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
	"pkt.systems/pslog"
	"pkt.systems/sourcecast/internal/event"
	"pkt.systems/sourcecast/schema"
)

// Entry is one published sourcecast as stored in the index. PlaybackData
// holds the serialized playback JSON.
type Entry struct {
	UID          schema.SourcecastUID `json:"uid"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	URL          string               `json:"url"`
	PlaybackData string               `json:"playbackData"`
}

// Sourcecast is a decoded index entry.
type Sourcecast struct {
	UID          schema.SourcecastUID `json:"uid"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	AudioURL     string               `json:"audioUrl"`
	PlaybackData event.PlaybackData   `json:"playbackData"`
	// Skipped lists inputs that could not be decoded.
	Skipped []error `json:"-"`
}

// Decode parses the entry's playback data. A recording without a baseline
// cannot be replayed and yields schema.ErrRecordingUnavailable.
func (e Entry) Decode() (Sourcecast, error) {
	data, skipped, err := event.ParsePlaybackData([]byte(e.PlaybackData))
	if err != nil {
		return Sourcecast{}, fmt.Errorf("%w: %s: %v", schema.ErrRecordingUnavailable, e.UID, err)
	}
	if data.Init == nil {
		return Sourcecast{}, fmt.Errorf("%w: %s has no baseline", schema.ErrRecordingUnavailable, e.UID)
	}
	return Sourcecast{
		UID:          e.UID,
		Title:        e.Title,
		Description:  e.Description,
		AudioURL:     e.URL,
		PlaybackData: data,
		Skipped:      skipped,
	}, nil
}

// NewEntry serializes playback data into an index entry.
func NewEntry(uid schema.SourcecastUID, title, description, audioURL string, data event.PlaybackData) (Entry, error) {
	if data.Inputs == nil {
		data.Inputs = []event.TimedEvent{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		UID:          uid,
		Title:        title,
		Description:  description,
		URL:          audioURL,
		PlaybackData: string(raw),
	}, nil
}

// Store persists the sourcecast index as a JSON file.
type Store struct {
	path string
	log  pslog.Logger
	mu   sync.Mutex
}

// NewStore constructs an index store at the given file path.
func NewStore(path string) (*Store, error) {
	return NewStoreWithLogger(path, nil)
}

// NewStoreWithLogger constructs an index store with logging.
func NewStoreWithLogger(path string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("index", path)
	}
	return &Store{path: path, log: logger}, nil
}

// Path returns the index file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads every entry. A missing index is empty.
func (s *Store) Load() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Lookup returns the entry with uid.
func (s *Store) Lookup(uid schema.SourcecastUID) (Entry, error) {
	entries, err := s.Load()
	if err != nil {
		return Entry{}, err
	}
	for _, entry := range entries {
		if entry.UID == uid {
			return entry, nil
		}
	}
	if s.log != nil {
		s.log.Debug("index lookup miss", "uid", uid)
	}
	return Entry{}, fmt.Errorf("%w: %s", schema.ErrSourcecastNotFound, uid)
}

// Search returns entries whose title or description fuzzily match query,
// best match first. An empty query returns every entry in index order.
func (s *Store) Search(query string) ([]Entry, error) {
	entries, err := s.Load()
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return entries, nil
	}
	matches := fuzzy.FindFrom(query, searchSource(entries))
	out := make([]Entry, 0, len(matches))
	for _, match := range matches {
		out = append(out, entries[match.Index])
	}
	if s.log != nil {
		s.log.Debug("index search", "query", query, "matches", len(out))
	}
	return out, nil
}

// Publish adds entry to the index, replacing an entry with the same uid.
// An empty uid is assigned.
func (s *Store) Publish(entry Entry) (Entry, error) {
	if strings.TrimSpace(entry.Title) == "" {
		return Entry{}, fmt.Errorf("%w: title is required", schema.ErrInvalidRequest)
	}
	if entry.UID == "" {
		entry.UID = schema.SourcecastUID(uuid.NewString())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.loadLocked()
	if err != nil {
		return Entry{}, err
	}
	replaced := false
	for i := range entries {
		if entries[i].UID == entry.UID {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}
	if err := s.saveLocked(entries); err != nil {
		return Entry{}, err
	}
	if s.log != nil {
		s.log.Info("index publish", "uid", entry.UID, "title", entry.Title, "replaced", replaced)
	}
	return entry, nil
}

// Delete removes the entry with uid.
func (s *Store) Delete(uid schema.SourcecastUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.loadLocked()
	if err != nil {
		return err
	}
	kept := entries[:0]
	for _, entry := range entries {
		if entry.UID != uid {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(entries) {
		return fmt.Errorf("%w: %s", schema.ErrSourcecastNotFound, uid)
	}
	return s.saveLocked(kept)
}

func (s *Store) loadLocked() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("index load miss")
			}
			return []Entry{}, nil
		}
		if s.log != nil {
			s.log.Warn("index load failed", "err", err)
		}
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		if s.log != nil {
			s.log.Warn("index load failed", "err", err)
		}
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	if s.log != nil {
		s.log.Trace("index load ok", "entries", len(entries))
	}
	return entries, nil
}

func (s *Store) saveLocked(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		s.saveFailed(err)
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "index-*.json")
	if err != nil {
		s.saveFailed(err)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		s.saveFailed(err)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		s.saveFailed(err)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		s.saveFailed(err)
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		s.saveFailed(err)
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		s.saveFailed(err)
		return err
	}
	if s.log != nil {
		s.log.Trace("index save ok", "entries", len(entries))
	}
	return nil
}

func (s *Store) saveFailed(err error) {
	if s.log != nil {
		s.log.Warn("index save failed", "err", err)
	}
}

type searchSource []Entry

func (s searchSource) String(i int) string {
	return s[i].Title + " " + s[i].Description
}

func (s searchSource) Len() int {
	return len(s)
}
