package variant

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownVariant is returned when a name is not registered.
var ErrUnknownVariant = errors.New("unknown visual variant")

// Registry is the fixed set of variants known to the service. It is built
// once at startup and only read afterwards.
type Registry struct {
	variants map[string]Variant
}

// NewRegistry creates a registry holding the given variants.
func NewRegistry(variants ...Variant) (*Registry, error) {
	r := &Registry{variants: make(map[string]Variant, len(variants))}
	for _, v := range variants {
		if err := r.register(v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Builtin returns a registry with the built-in variants.
func Builtin() *Registry {
	r, err := NewRegistry(builtinVariants()...)
	if err != nil {
		panic(fmt.Sprintf("variant: invalid builtin registry: %v", err))
	}
	return r
}

// register adds or replaces a variant.
func (r *Registry) register(v Variant) error {
	if err := validate(v); err != nil {
		return err
	}
	v.Name = normalizeName(v.Name)
	r.variants[v.Name] = v
	return nil
}

// Lookup returns the variant registered under name.
func (r *Registry) Lookup(name string) (Variant, error) {
	v, ok := r.variants[normalizeName(name)]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	return v, nil
}

// Names returns the registered variant names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.variants))
	for name := range r.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the registered variants sorted by name.
func (r *Registry) List() []Variant {
	names := r.Names()
	out := make([]Variant, 0, len(names))
	for _, name := range names {
		out = append(out, r.variants[name])
	}
	return out
}

func builtinVariants() []Variant {
	portrait := Look{
		Width:               1080,
		Height:              1920,
		FontSize:            64,
		TranslationFontSize: 40,
		TitleFontSize:       88,
		TextColor:           "white",
		BackgroundColor:     "black",
		AccentColor:         "0xD4AF37",
		ClosingText:         "",
	}

	classic := Variant{
		Name:          "classic",
		CompositionID: "VerseClassic",
		Defaults: Defaults{
			FramesPerSecond:        30,
			TitleSeconds:           2,
			ClosingSeconds:         1,
			FallbackSegmentSeconds: 8,
			FadeSeconds:            0.8,
		},
		Look: portrait,
	}

	modern := Variant{
		Name:          "modern",
		CompositionID: "VerseModern",
		Defaults: Defaults{
			FramesPerSecond:        30,
			TitleSeconds:           2,
			ClosingSeconds:         1,
			FallbackSegmentSeconds: 10,
			FadeSeconds:            1,
		},
		Look: portrait,
	}
	modern.Look.BackgroundColor = "0x0F172A"
	modern.Look.AccentColor = "0x38BDF8"

	minimal := Variant{
		Name:          "minimal",
		CompositionID: "VerseMinimal",
		Defaults: Defaults{
			FramesPerSecond:        30,
			TitleSeconds:           3,
			ClosingSeconds:         1,
			FallbackSegmentSeconds: 8,
			FadeSeconds:            1,
		},
		Look: portrait,
	}
	minimal.Look.BackgroundColor = "0xFAFAF9"
	minimal.Look.TextColor = "0x1C1917"
	minimal.Look.AccentColor = "0x78716C"
	minimal.Look.TranslationFontSize = 36

	return []Variant{classic, modern, minimal}
}
