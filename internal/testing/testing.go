// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/desertthunder/amx/internal/matcher"
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/services"
)

// MockSource is a configurable test double for [services.SourceService].
type MockSource struct {
	PlaylistList  []models.PlaylistRef
	Tracks        map[string][]models.SourceTrack
	PlaylistsErr  error
	TracksErr     error
	TracksCalls   []string
	Authenticated bool
}

func (m *MockSource) Authenticate(ctx context.Context, credentials map[string]string) error {
	m.Authenticated = true
	return nil
}

func (m *MockSource) Playlists(ctx context.Context) ([]models.PlaylistRef, error) {
	if m.PlaylistsErr != nil {
		return nil, m.PlaylistsErr
	}
	return m.PlaylistList, nil
}

func (m *MockSource) PlaylistTracks(ctx context.Context, playlistID string) ([]models.SourceTrack, error) {
	m.TracksCalls = append(m.TracksCalls, playlistID)
	if m.TracksErr != nil {
		return nil, m.TracksErr
	}
	return m.Tracks[playlistID], nil
}

func (m *MockSource) Name() string { return "mock source" }

// MockTarget is a configurable test double for [services.TargetService].
//
// Resolution runs the real matcher against the configured candidate map so
// engine tests exercise genuine selection behavior.
type MockTarget struct {
	Targets      []models.PlaylistRef
	Candidates   map[string][]models.Candidate
	ResolveErr   error
	AppendErr    error
	AppendCalls  map[string][]string // playlist id -> appended catalog ids
	ResolveCalls int
}

func (m *MockTarget) SyncTargets(ctx context.Context) []models.PlaylistRef {
	return m.Targets
}

func (m *MockTarget) ResolveTracks(ctx context.Context, tracks []models.SourceTrack) (*services.ResolveResult, error) {
	m.ResolveCalls++
	if m.ResolveErr != nil {
		return nil, m.ResolveErr
	}

	matches, unresolved := matcher.Resolve(m.Candidates, tracks)
	return &services.ResolveResult{Matches: matches, Unresolved: unresolved}, nil
}

func (m *MockTarget) AppendTracks(ctx context.Context, playlistID string, catalogIDs []string) (*services.AppendResult, error) {
	if m.AppendErr != nil {
		return nil, m.AppendErr
	}

	if m.AppendCalls == nil {
		m.AppendCalls = make(map[string][]string)
	}
	m.AppendCalls[playlistID] = append(m.AppendCalls[playlistID], catalogIDs...)

	batches := (len(catalogIDs) + 19) / 20
	return &services.AppendResult{
		BatchesAttempted: batches,
		BatchesConfirmed: batches,
		TracksAppended:   len(catalogIDs),
	}, nil
}

func (m *MockTarget) Name() string { return "mock target" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}
