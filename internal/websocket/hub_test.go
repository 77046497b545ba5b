package websocket

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/starshop/chatdesk/internal/presence"
	"github.com/starshop/chatdesk/internal/types"
)

func TestNewHub(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)

	if hub == nil {
		t.Fatal("expected hub to be created")
	}

	if hub.clients == nil {
		t.Error("expected clients map to be initialized")
	}

	if hub.broadcast == nil {
		t.Error("expected broadcast channel to be initialized")
	}

	if hub.register == nil {
		t.Error("expected register channel to be initialized")
	}

	if hub.unregister == nil {
		t.Error("expected unregister channel to be initialized")
	}
}

func TestHubClientCount(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)

	// Initial count should be 0
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}

	// Simulate adding clients
	hub.mu.Lock()
	hub.clients[&Client{id: "test1"}] = true
	hub.clients[&Client{id: "test2"}] = true
	hub.mu.Unlock()

	if hub.ClientCount() != 2 {
		t.Errorf("expected 2 clients, got %d", hub.ClientCount())
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)

	// Start hub in goroutine
	go hub.Run()

	// Create mock client
	client := &Client{
		id:   "test-client",
		hub:  hub,
		send: make(chan []byte, 1),
	}

	// Register client
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client after register, got %d", hub.ClientCount())
	}

	// Unregister client
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients after unregister, got %d", hub.ClientCount())
	}
}

func TestHubBroadcastToMultipleClients(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := NewHub(logger)

	// Start hub
	go hub.Run()

	// Create multiple mock clients
	client1 := &Client{
		id:   "client1",
		hub:  hub,
		send: make(chan []byte, 10),
	}

	client2 := &Client{
		id:   "client2",
		hub:  hub,
		send: make(chan []byte, 10),
	}

	// Register clients
	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	// Broadcast message
	message := []byte("test broadcast")
	hub.Broadcast(message)

	// Wait for message to be sent
	time.Sleep(10 * time.Millisecond)

	// Check both clients received the message
	select {
	case msg := <-client1.send:
		if string(msg) != string(message) {
			t.Errorf("client1 expected %s, got %s", message, msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client1 did not receive message")
	}

	select {
	case msg := <-client2.send:
		if string(msg) != string(message) {
			t.Errorf("client2 expected %s, got %s", message, msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client2 did not receive message")
	}
}

func TestStaffHubCheckInFeedsTracker(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	tracker := presence.NewTracker()
	hub := NewStaffHub(tracker, logger)

	go hub.Run()

	hub.checkIn <- &types.StaffCheckIn{
		Type:        "check_in",
		StaffID:     "staff-1",
		MaxWorkload: 3,
	}
	time.Sleep(10 * time.Millisecond)

	row, ok := tracker.Get("staff-1")
	if !ok {
		t.Fatal("expected presence row after check-in")
	}
	if !row.Online || row.Status != types.StaffAvailable {
		t.Errorf("expected online available staff, got %+v", row)
	}
	if row.MaxWorkload != 3 {
		t.Errorf("expected max workload 3, got %d", row.MaxWorkload)
	}
}

func TestStaffHubStatusChange(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	tracker := presence.NewTracker()
	hub := NewStaffHub(tracker, logger)

	go hub.Run()

	hub.checkIn <- &types.StaffCheckIn{Type: "check_in", StaffID: "staff-1"}
	hub.statusChange <- &types.StaffStatusChange{
		Type:    "status_change",
		StaffID: "staff-1",
		Status:  types.StaffBusy,
	}
	time.Sleep(10 * time.Millisecond)

	row, _ := tracker.Get("staff-1")
	if row.Status != types.StaffBusy {
		t.Errorf("expected busy, got %s", row.Status)
	}
}

func TestStaffHubUnregisterChecksOut(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	tracker := presence.NewTracker()
	hub := NewStaffHub(tracker, logger)

	go hub.Run()

	client := &StaffClient{
		staffID: "staff-1",
		hub:     hub,
		send:    make(chan []byte, 1),
		done:    make(chan struct{}),
	}

	hub.register <- client
	hub.checkIn <- &types.StaffCheckIn{Type: "check_in", StaffID: "staff-1"}
	time.Sleep(10 * time.Millisecond)

	if hub.StaffCount() != 1 {
		t.Fatalf("expected 1 staff connected, got %d", hub.StaffCount())
	}

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	if hub.StaffCount() != 0 {
		t.Errorf("expected 0 staff connected, got %d", hub.StaffCount())
	}
	row, _ := tracker.Get("staff-1")
	if row.Online || row.Status != types.StaffOffline {
		t.Errorf("expected staff checked out, got %+v", row)
	}
}

func TestStaffHubSendToStaff(t *testing.T) {
	logger := zerolog.New(&bytes.Buffer{})
	tracker := presence.NewTracker()
	hub := NewStaffHub(tracker, logger)

	go hub.Run()

	client := &StaffClient{
		staffID: "staff-1",
		hub:     hub,
		send:    make(chan []byte, 10),
		done:    make(chan struct{}),
	}
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	if !hub.SendToStaff("staff-1", []byte("hello")) {
		t.Fatal("expected send to succeed")
	}
	if hub.SendToStaff("staff-absent", []byte("hello")) {
		t.Error("expected send to absent staff to fail")
	}

	select {
	case msg := <-client.send:
		if string(msg) != "hello" {
			t.Errorf("expected hello, got %s", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("staff did not receive message")
	}
}
