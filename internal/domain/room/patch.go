package room

import (
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

var ErrHostSecretSet = errors.New("host secret is already set")

// Patch is a set of named room fields sent by a client. Nil fields are left
// untouched.
type Patch struct {
	AutoDJEnabled    *bool   `mapstructure:"autoDjEnabled"`
	FallbackCoverURL *string `mapstructure:"fallbackCoverUrl"`
	RTVThreshold     *int    `mapstructure:"rtvThreshold" validate:"omitempty,gte=1"`

	ShowSearch       *bool `mapstructure:"showSearch"`
	ShowSidebar      *bool `mapstructure:"showSidebar"`
	ShowQR           *bool `mapstructure:"showQr"`
	ShowProgress     *bool `mapstructure:"showProgress"`
	EnableVisualizer *bool `mapstructure:"enableVisualizer"`

	HostPasswordHash *string `mapstructure:"hostPasswordHash" validate:"omitempty,min=1"`
	AccessToken      *string `mapstructure:"accessToken"`
	RefreshToken     *string `mapstructure:"refreshToken"`
}

// DecodePatch converts client fields into a Patch. Unknown fields and values of
// the wrong type are rejected.
func DecodePatch(fields map[string]any) (Patch, error) {
	var p Patch
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return Patch{}, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(fields); err != nil {
		return Patch{}, errors.Wrap(err, "failed to decode patch")
	}
	if err := validator.New().Struct(p); err != nil {
		return Patch{}, errors.Wrap(err, "validation failed")
	}
	return p, nil
}

// Check reports whether the patch can be applied to the room as a whole.
func (p Patch) Check(r *Room) error {
	if p.HostPasswordHash != nil && r.HostSecretHash != "" && *p.HostPasswordHash != r.HostSecretHash {
		return ErrHostSecretSet
	}
	return nil
}

// ApplyPatch merges the patch into the room. A threshold change runs the
// rock-the-vote check in the same mutation. It returns true if a genre change fired.
func (r *Room) ApplyPatch(p Patch) (bool, error) {
	if err := p.Check(r); err != nil {
		return false, err
	}

	setBool(&r.AutoDJEnabled, p.AutoDJEnabled)
	setString(&r.FallbackCoverURL, p.FallbackCoverURL)
	setBool(&r.Toggles.ShowSearch, p.ShowSearch)
	setBool(&r.Toggles.ShowSidebar, p.ShowSidebar)
	setBool(&r.Toggles.ShowQR, p.ShowQR)
	setBool(&r.Toggles.ShowProgress, p.ShowProgress)
	setBool(&r.Toggles.EnableVisualizer, p.EnableVisualizer)
	setString(&r.HostSecretHash, p.HostPasswordHash)
	setString(&r.Credentials.AccessToken, p.AccessToken)
	setString(&r.Credentials.RefreshToken, p.RefreshToken)

	if p.RTVThreshold != nil {
		return r.SetRtvThreshold(*p.RTVThreshold), nil
	}
	return false, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
