package bridge

import (
	"fmt"
	"sync"
)

// Binding decides when a run reads the device credential.
type Binding string

const (
	// BindingSnapshot captures the credential when the trigger arrives and
	// threads it through the run by value.
	BindingSnapshot Binding = "snapshot"
	// BindingShared reads the process-wide credential when the fetch starts,
	// so a later trigger can change the key an in-flight run uses.
	BindingShared Binding = "shared"
)

func ParseBinding(s string) (Binding, error) {
	switch Binding(s) {
	case BindingSnapshot, BindingShared:
		return Binding(s), nil
	case "":
		return BindingSnapshot, nil
	}
	return "", fmt.Errorf("unknown credential binding %q", s)
}

// CredentialStore holds the last credential delivered by the device.
// Writes are last-write-wins.
type CredentialStore struct {
	mu  sync.RWMutex
	key string
}

func (s *CredentialStore) Set(key string) {
	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
}

func (s *CredentialStore) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}
