package conn

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/lib/store/bstore"
	"github.com/ValentinKolb/skv/lib/store/lstore"
	storetesting "github.com/ValentinKolb/skv/lib/store/testing"
)

func waitDone(t *testing.T, c *Connection) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("connection did not finish dialing")
	}
}

func TestConnectionStore(t *testing.T) {
	storetesting.RunStoreTests(t, "Connection", func(t *testing.T, clock *storetesting.FakeClock) store.IStore {
		c := New(Local(&lstore.Options{Clock: clock.Now}))
		c.Connect()
		waitDone(t, c)
		return c
	})
}

func TestNotConnected(t *testing.T) {
	c := New(Local(nil))

	if c.IsReady() {
		t.Fatal("connection is ready before Connect")
	}
	if err := c.Set("k", []byte("v")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
	if _, _, err := c.Get("k"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestConnectIsAsync(t *testing.T) {
	release := make(chan struct{})
	dials := 0
	c := New(func() (store.IStore, error) {
		dials++
		<-release
		return lstore.NewLocalStore(nil), nil
	})

	c.Connect()
	c.Connect()
	if c.IsReady() {
		t.Fatal("connection is ready before the dialer returned")
	}

	close(release)
	waitDone(t, c)

	if !c.IsReady() {
		t.Fatal("connection is not ready after dialing")
	}
	if dials != 1 {
		t.Errorf("Expected one dial, got %d", dials)
	}
	if err := c.Set("k", []byte("v")); err != nil {
		t.Errorf("Set failed: %v", err)
	}
	if err := c.Destroy(); err != nil {
		t.Errorf("Destroy failed: %v", err)
	}
}

func TestDialError(t *testing.T) {
	dialErr := errors.New("boom")
	c := New(func() (store.IStore, error) { return nil, dialErr })
	c.Connect()
	waitDone(t, c)

	if c.IsReady() {
		t.Error("connection is ready after a failed dial")
	}
	if !errors.Is(c.Err(), dialErr) {
		t.Errorf("Expected dial error, got %v", c.Err())
	}
}

func TestDestroy(t *testing.T) {
	c := New(Local(nil))
	c.Connect()
	waitDone(t, c)

	if err := c.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if err := c.Destroy(); err != nil {
		t.Errorf("second Destroy failed: %v", err)
	}
	if err := c.Set("k", []byte("v")); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Expected ErrDestroyed, got %v", err)
	}
}

func TestDestroyBeforeConnect(t *testing.T) {
	c := New(func() (store.IStore, error) {
		t.Error("dialer called after Destroy")
		return lstore.NewLocalStore(nil), nil
	})
	if err := c.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	c.Connect()
	waitDone(t, c)

	if !errors.Is(c.Err(), ErrDestroyed) {
		t.Errorf("Expected ErrDestroyed, got %v", c.Err())
	}
}

func TestBoltDialer(t *testing.T) {
	c := New(Bolt(bstore.Options{Path: filepath.Join(t.TempDir(), "conn.db")}))
	c.Connect()
	waitDone(t, c)
	defer c.Destroy()

	if err := c.Err(); err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if err := c.SetEx("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("SetEx failed: %v", err)
	}
	ttl, ok, err := c.TTL("k")
	if err != nil || !ok || ttl <= 0 || ttl > time.Minute {
		t.Errorf("unexpected TTL: %v %v %v", ttl, ok, err)
	}
}
