package roster

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Merge returns next if it holds at least one narrator, otherwise prev
// unchanged. No union or alias reconciliation happens here; the extraction
// call is shown the previous roster and is expected to re-emit it updated.
func Merge(prev, next Roster) Roster {
	if len(next) > 0 {
		return next
	}
	return prev
}

// Normalize trims names and aliases, drops narrators with an empty name and
// later duplicates of an earlier name, dedupes aliases (keeping first
// occurrence and dropping any alias equal to the name) and normalises the
// gender through [ParseGender].
func Normalize(r Roster) Roster {
	if len(r) == 0 {
		return nil
	}
	out := make(Roster, 0, len(r))
	seen := make(map[string]struct{}, len(r))
	for _, n := range r {
		name := strings.TrimSpace(n.Name)
		if name == "" {
			slog.Debug("roster: dropping narrator with empty name")
			continue
		}
		if _, dup := seen[name]; dup {
			slog.Info("roster: dropping duplicate narrator", "name", name)
			continue
		}
		seen[name] = struct{}{}

		var aliases []string
		aliasSeen := map[string]struct{}{name: {}}
		for _, a := range n.Aliases {
			a = strings.TrimSpace(a)
			if a == "" {
				continue
			}
			if _, dup := aliasSeen[a]; dup {
				continue
			}
			aliasSeen[a] = struct{}{}
			aliases = append(aliases, a)
		}

		g := n.Gender
		if !g.IsValid() {
			g = ParseGender(string(g))
		}

		out = append(out, Narrator{
			Name:     name,
			Aliases:  aliases,
			Gender:   g,
			Portrait: strings.TrimSpace(n.Portrait),
		})
	}
	return out
}

// Validate checks a [Narrator] for required fields.
//
// Rules:
//   - Name must be non-empty.
//   - Gender must be a recognised [Gender].
//   - No alias may be empty.
func Validate(n Narrator) error {
	var errs []error

	if strings.TrimSpace(n.Name) == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !n.Gender.IsValid() {
		errs = append(errs, fmt.Errorf("gender %q is not a recognised gender", n.Gender))
	}
	for i, a := range n.Aliases {
		if strings.TrimSpace(a) == "" {
			errs = append(errs, fmt.Errorf("aliases[%d]: must not be empty", i))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// ValidateRoster validates every narrator and checks names are unique.
func ValidateRoster(r Roster) error {
	var errs []error
	seen := make(map[string]int, len(r))
	for i, n := range r {
		if err := Validate(n); err != nil {
			errs = append(errs, fmt.Errorf("narrators[%d] %q: %w", i, n.Name, err))
		}
		if j, dup := seen[n.Name]; dup && n.Name != "" {
			errs = append(errs, fmt.Errorf("narrators[%d]: name %q already used by narrators[%d]", i, n.Name, j))
		}
		seen[n.Name] = i
	}
	return errors.Join(errs...)
}
