package configsvc

import (
	"context"
	"fmt"

	"github.com/osdpgw/gateway/pkg/device"
	"github.com/osdpgw/gateway/pkg/model"
	"github.com/osdpgw/gateway/pkg/security"
	"github.com/osdpgw/gateway/pkg/store"
)

// OSDPSecurityService exposes the per-mode secure-channel keying policy as an
// application service: ClearText readers carry no key, Install readers use
// the fixed default installation key, Secure readers use their stored key.
type OSDPSecurityService struct {
	sec *security.Service
}

// NewOSDPSecurityService constructs an OSDPSecurityService.
func NewOSDPSecurityService(sec *security.Service) *OSDPSecurityService {
	return &OSDPSecurityService{sec: sec}
}

// GetSecurityKey resolves the key to install on a bus device for mode.
func (s *OSDPSecurityService) GetSecurityKey(mode model.SecurityMode, stored []byte) ([16]byte, error) {
	return s.sec.GetSecurityKey(mode, stored)
}

// GenerateRandomKey returns 16 cryptographically random bytes for a new
// secure-channel installation.
func (s *OSDPSecurityService) GenerateRandomKey() ([16]byte, error) {
	return s.sec.GenerateRandomKey()
}

// GetDefaultInstallationKey returns the OSDP default base key.
func (s *OSDPSecurityService) GetDefaultInstallationKey() [16]byte {
	return s.sec.GetDefaultInstallationKey()
}

// SecurityModeUpdateService atomically persists a reader's resolved
// security mode and key after a successful secure-channel installation.
type SecurityModeUpdateService struct {
	store store.SecurityStore
}

// NewSecurityModeUpdateService constructs a SecurityModeUpdateService.
func NewSecurityModeUpdateService(s store.SecurityStore) *SecurityModeUpdateService {
	return &SecurityModeUpdateService{store: s}
}

// UpdateSecurity writes the new (mode, key) pair for readerID. Its
// signature matches device.SecurityUpdater so a SecurityModeUpdateService
// can be handed directly to bus.Config.SecUpdater.
func (s *SecurityModeUpdateService) UpdateSecurity(ctx context.Context, readerID string, mode model.SecurityMode, key []byte) error {
	if err := s.store.UpdateSecurity(ctx, readerID, mode, key); err != nil {
		return fmt.Errorf("configsvc: update security: %w", err)
	}
	return nil
}

var _ device.SecurityUpdater = (*SecurityModeUpdateService)(nil)
