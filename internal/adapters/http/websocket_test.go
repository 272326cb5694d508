package http

import (
	"errors"
	"reflect"
	"testing"

	natsadapter "github.com/samirrijal/tripfootprint/internal/adapters/nats"
)

type fakeSub struct {
	subject string
	active  map[string]int
}

func (s *fakeSub) Unsubscribe() error {
	s.active[s.subject]--
	return nil
}

func newFakeFeeds() (*feedSet, map[string]int) {
	active := make(map[string]int)
	return newFeedSet(func(subject string) (unsubscriber, error) {
		if subject == feedSubject("broken") {
			return nil, errors.New("nats down")
		}
		active[subject]++
		return &fakeSub{subject: subject, active: active}, nil
	}), active
}

func TestFeedSubject(t *testing.T) {
	if got := feedSubject(""); got != natsadapter.SubjectEstimatedAll {
		t.Errorf("feedSubject(\"\") = %q", got)
	}
	if got, want := feedSubject(" Web "), natsadapter.EstimatedSubject("web"); got != want {
		t.Errorf("feedSubject(\" Web \") = %q, want %q", got, want)
	}
}

func TestFeedSet_SourceReplacesAll(t *testing.T) {
	feeds, active := newFakeFeeds()
	all := natsadapter.SubjectEstimatedAll
	web := feedSubject("web")

	if _, err := feeds.add(all); err != nil {
		t.Fatalf("add all: %v", err)
	}
	dropped, err := feeds.add(web)
	if err != nil {
		t.Fatalf("add web: %v", err)
	}
	if !reflect.DeepEqual(dropped, []string{all}) {
		t.Errorf("dropped = %v, want [%s]", dropped, all)
	}
	if got := feeds.subjects(); !reflect.DeepEqual(got, []string{web}) {
		t.Errorf("subjects = %v", got)
	}
	if active[all] != 0 || active[web] != 1 {
		t.Errorf("live subscriptions = %v", active)
	}
}

func TestFeedSet_AllReplacesSources(t *testing.T) {
	feeds, active := newFakeFeeds()
	web, cli := feedSubject("web"), feedSubject("cli")
	for _, s := range []string{web, cli} {
		if _, err := feeds.add(s); err != nil {
			t.Fatalf("add %s: %v", s, err)
		}
	}

	dropped, err := feeds.add(natsadapter.SubjectEstimatedAll)
	if err != nil {
		t.Fatalf("add all: %v", err)
	}
	if len(dropped) != 2 {
		t.Errorf("dropped = %v", dropped)
	}
	if active[web] != 0 || active[cli] != 0 || active[natsadapter.SubjectEstimatedAll] != 1 {
		t.Errorf("live subscriptions = %v", active)
	}
}

func TestFeedSet_SourcesCoexist(t *testing.T) {
	feeds, _ := newFakeFeeds()
	feeds.add(feedSubject("web"))
	dropped, err := feeds.add(feedSubject("cli"))
	if err != nil || len(dropped) != 0 {
		t.Fatalf("add cli: dropped=%v err=%v", dropped, err)
	}
	if len(feeds.subjects()) != 2 {
		t.Errorf("subjects = %v", feeds.subjects())
	}
}

func TestFeedSet_Errors(t *testing.T) {
	feeds, active := newFakeFeeds()
	all := natsadapter.SubjectEstimatedAll
	feeds.add(all)

	if _, err := feeds.add(all); !errors.Is(err, errAlreadySubscribed) {
		t.Errorf("expected errAlreadySubscribed, got %v", err)
	}
	if _, err := feeds.add(feedSubject("broken")); err == nil {
		t.Error("expected subscribe failure")
	}
	if active[all] != 1 {
		t.Error("failed subscribe must keep the existing feed")
	}

	if feeds.remove(feedSubject("web")) {
		t.Error("remove of unknown subject reported true")
	}
	if !feeds.remove(all) || active[all] != 0 {
		t.Errorf("remove all: live subscriptions = %v", active)
	}
}

func TestFeedSet_Close(t *testing.T) {
	feeds, active := newFakeFeeds()
	feeds.add(feedSubject("web"))
	feeds.add(feedSubject("cli"))
	feeds.close()

	for subject, n := range active {
		if n != 0 {
			t.Errorf("%s still has %d subscriptions", subject, n)
		}
	}
	if len(feeds.subjects()) != 0 {
		t.Errorf("subjects after close = %v", feeds.subjects())
	}
}
