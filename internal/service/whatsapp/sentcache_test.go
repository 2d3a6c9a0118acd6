package whatsapp

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestSentRegistryRemembersWithinWindow(t *testing.T) {
	r := NewSentRegistry()
	defer r.Stop()

	r.Add("MSG-1")
	if !r.Contains("MSG-1") {
		t.Fatal("freshly added ID must be present")
	}
	if r.Contains("MSG-2") {
		t.Fatal("unknown ID must not be present")
	}
}

func TestSentRegistryIgnoresEmptyIDs(t *testing.T) {
	r := NewSentRegistry()
	defer r.Stop()

	r.Add("")
	if r.Contains("") {
		t.Fatal("empty ID must not be tracked")
	}
}

func TestSentRegistryExpiresEntries(t *testing.T) {
	r := NewSentRegistry()
	defer r.Stop()
	r.retention = 20 * time.Millisecond

	r.Add("MSG-1")
	time.Sleep(60 * time.Millisecond)

	if r.Contains("MSG-1") {
		t.Fatal("entry survived past its retention window")
	}
}

func TestSentRegistryConcurrentAccess(t *testing.T) {
	r := NewSentRegistry()
	defer r.Stop()
	r.retention = 5 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := fmt.Sprintf("MSG-%d-%d", n, j)
				r.Add(id)
				r.Contains(id)
			}
		}(i)
	}
	wg.Wait()
}
