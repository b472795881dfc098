package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"

	"github.com/99designs/keyring"
)

// ServiceName identifies our namespace in the OS keychain/credential store.
const ServiceName = "fabagent"

// profileKey is the single keychain entry holding the JSON-serialized profile.
const profileKey = "spn_profile"

// openRing opens the OS keyring using native platform backends.
func openRing() (keyring.Keyring, error) {
	var allowedBackends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		allowedBackends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	default:
		allowedBackends = []keyring.BackendType{keyring.SecretServiceBackend, keyring.PassBackend}
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowedBackends,
		PassPrefix:      ServiceName,
		WinCredPrefix:   ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("opening OS keychain: %w", err)
	}
	return ring, nil
}

// SaveProfile stores the profile in the OS keychain.
func SaveProfile(p Profile) error {
	ring, err := openRing()
	if err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return ring.Set(keyring.Item{
		Key:   profileKey,
		Label: ServiceName + " SPN profile",
		Data:  data,
	})
}

// LoadProfile retrieves the stored profile. The second return is false when
// no profile has been saved or the keychain is unavailable.
func LoadProfile() (Profile, bool) {
	ring, err := openRing()
	if err != nil {
		return Profile{}, false
	}
	item, err := ring.Get(profileKey)
	if err != nil {
		return Profile{}, false
	}
	var p Profile
	if err := json.Unmarshal(item.Data, &p); err != nil {
		return Profile{}, false
	}
	return p, true
}

// ClearProfile removes the stored profile from the keychain.
func ClearProfile() error {
	ring, err := openRing()
	if err != nil {
		return err
	}
	if err := ring.Remove(profileKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
