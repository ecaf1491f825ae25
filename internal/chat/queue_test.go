package chat

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestChatQueue_OrderedPerUser(t *testing.T) {
	var (
		mu  sync.Mutex
		got = map[string][]string{}
		wg  sync.WaitGroup
	)
	q := newChatQueue(func(m InboundMessage) {
		defer wg.Done()
		// Earlier messages are slower so a reordering would show.
		n, _ := strconv.Atoi(m.Text)
		time.Sleep(time.Duration(10-n) * time.Millisecond)
		mu.Lock()
		got[m.UserID] = append(got[m.UserID], m.Text)
		mu.Unlock()
	})

	for i := 0; i < 10; i++ {
		for _, user := range []string{"a", "b"} {
			wg.Add(1)
			q.push(InboundMessage{UserID: user, Text: strconv.Itoa(i)})
		}
	}
	wg.Wait()

	for _, user := range []string{"a", "b"} {
		if len(got[user]) != 10 {
			t.Fatalf("user %s handled %d messages, want 10", user, len(got[user]))
		}
		for i, text := range got[user] {
			if text != strconv.Itoa(i) {
				t.Errorf("user %s message %d = %s, want arrival order %v", user, i, text, got[user])
				break
			}
		}
	}
}

func TestChatQueue_UsersRunConcurrently(t *testing.T) {
	release := make(chan struct{})
	done := make(chan string, 2)
	q := newChatQueue(func(m InboundMessage) {
		if m.UserID == "slow" {
			<-release
		}
		done <- m.UserID
	})

	q.push(InboundMessage{UserID: "slow"})
	q.push(InboundMessage{UserID: "fast"})

	select {
	case u := <-done:
		if u != "fast" {
			t.Fatalf("first handled = %s, want fast", u)
		}
	case <-time.After(time.Second):
		t.Fatal("a blocked user should not hold up others")
	}
	close(release)
	<-done
}
