package pipeline

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"meritage-scraper/fetcher"
	"meritage-scraper/models"
	"meritage-scraper/store"
)

const baseURL = "https://www.meritagehomes.com"

// stubSession is a canned rendering session shared across URLs; the
// factory hands out the same instance and counts fetches.
type stubSession struct {
	pages      map[string]string
	errs       map[string]error
	fetchCount int
	closeCount int
}

func (s *stubSession) Fetch(url string) (string, error) {
	s.fetchCount++
	if err := s.errs[url]; err != nil {
		return "", err
	}
	return s.pages[url], nil
}

func (s *stubSession) FetchDetail(url string) (string, error) {
	return s.Fetch(url)
}

func (s *stubSession) Close() error {
	s.closeCount++
	return nil
}

func communityPage(name string) string {
	return `<html><body><div class="community-detail-overview"><article><h1>` +
		name + `</h1></article></div></body></html>`
}

func newTestPipeline(t *testing.T, session *stubSession, sinks ...Sink) (*Pipeline, *store.Store) {
	t.Helper()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	factory := func() (fetcher.Session, error) { return session, nil }
	p := New(st, baseURL, factory, rand.New(rand.NewSource(1)), time.Millisecond, sinks...)
	return p, st
}

func TestRunMaterializesRecords(t *testing.T) {
	urls := []string{baseURL + "/state/tx/austin/a", baseURL + "/state/tx/austin/b"}
	session := &stubSession{pages: map[string]string{
		urls[0]: communityPage("Community A"),
		urls[1]: communityPage("Community B"),
	}}
	p, st := newTestPipeline(t, session)

	summary := p.Run(urls)

	if summary.Processed != 2 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 2 processed", summary)
	}
	if !st.RecordExists("a") || !st.RecordExists("b") {
		t.Error("both records must be materialized")
	}
	if len(summary.Communities) != 2 {
		t.Fatalf("got %d collected communities, want 2", len(summary.Communities))
	}
	if summary.Communities[0].Name == nil || *summary.Communities[0].Name != "Community A" {
		t.Errorf("first community name = %v", summary.Communities[0].Name)
	}
	if session.closeCount != 2 {
		t.Errorf("sessions closed %d times, want one close per URL", session.closeCount)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	urls := []string{baseURL + "/state/tx/austin/a", baseURL + "/state/tx/austin/b"}
	session := &stubSession{pages: map[string]string{
		urls[0]: communityPage("Community A"),
		urls[1]: communityPage("Community B"),
	}}
	p, _ := newTestPipeline(t, session)

	p.Run(urls)
	firstRunFetches := session.fetchCount

	summary := p.Run(urls)

	if session.fetchCount != firstRunFetches {
		t.Errorf("second run performed %d re-fetches, want 0",
			session.fetchCount-firstRunFetches)
	}
	if summary.Processed != 0 || summary.Skipped != 2 {
		t.Errorf("second run summary = %+v, want everything skipped", summary)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	urls := []string{
		baseURL + "/state/tx/austin/a",
		baseURL + "/state/tx/austin/b",
		baseURL + "/state/tx/austin/c",
	}
	session := &stubSession{
		pages: map[string]string{
			urls[0]: communityPage("Community A"),
			urls[2]: communityPage("Community C"),
		},
		errs: map[string]error{
			urls[1]: errors.New("navigation timeout"),
		},
	}
	p, st := newTestPipeline(t, session)

	summary := p.Run(urls)

	if summary.Processed != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 2 processed and 1 failed", summary)
	}
	if !st.RecordExists("a") || !st.RecordExists("c") {
		t.Error("the first and third records must be materialized")
	}
	if st.RecordExists("b") {
		t.Error("the failed URL must not leave a record behind")
	}
	if session.closeCount != 3 {
		t.Errorf("sessions closed %d times, want a close on the failure path too", session.closeCount)
	}
}

// recordingSink collects the communities handed to it.
type recordingSink struct {
	saved []*models.Community
	err   error
}

func (s *recordingSink) SaveCommunity(c *models.Community) error {
	s.saved = append(s.saved, c)
	return s.err
}

func TestRunFeedsSinks(t *testing.T) {
	url := baseURL + "/state/tx/austin/a"
	session := &stubSession{pages: map[string]string{url: communityPage("Community A")}}
	sink := &recordingSink{}
	p, _ := newTestPipeline(t, session, sink)

	p.Run([]string{url})

	if len(sink.saved) != 1 {
		t.Fatalf("sink received %d communities, want 1", len(sink.saved))
	}
	if sink.saved[0].URL != url {
		t.Errorf("sink community url = %q, want %q", sink.saved[0].URL, url)
	}
}

func TestRunSinkFailureIsNotFatal(t *testing.T) {
	url := baseURL + "/state/tx/austin/a"
	session := &stubSession{pages: map[string]string{url: communityPage("Community A")}}
	sink := &recordingSink{err: errors.New("connection refused")}
	p, st := newTestPipeline(t, session, sink)

	summary := p.Run([]string{url})

	if summary.Processed != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v, a sink failure must not fail the URL", summary)
	}
	if !st.RecordExists("a") {
		t.Error("record must still be materialized when a sink fails")
	}
}
