package port

import "github.com/idrissbellil/cryptomonitor/internal/domain/entity"

// ProfileStore persists the monitoring profile. Load returns
// entity.ErrProfileNotFound when no profile has been saved yet so callers can
// tell the user to initialize one.
type ProfileStore interface {
	Save(profile entity.Profile) error
	Load() (entity.Profile, error)
}
