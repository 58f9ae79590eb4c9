package settings

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// NonEmpty rejects strings that are empty or whitespace only.
func NonEmpty() Predicate {
	return func(v Value) error {
		s, _ := v.AsString()
		if strings.TrimSpace(s) == "" {
			return errors.New("must not be empty")
		}
		return nil
	}
}

// OneOf accepts only the listed strings.
func OneOf(allowed ...string) Predicate {
	return func(v Value) error {
		s, _ := v.AsString()
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fmt.Errorf("%q is not one of [%s]", s, strings.Join(allowed, ", "))
	}
}

// HasPrefix requires a string to start with prefix.
func HasPrefix(prefix string) Predicate {
	return func(v Value) error {
		s, _ := v.AsString()
		if !strings.HasPrefix(s, prefix) {
			return fmt.Errorf("must start with %q", prefix)
		}
		return nil
	}
}

// IntRange accepts integers in [lo, hi].
func IntRange(lo, hi int64) Predicate {
	return func(v Value) error {
		i, _ := v.AsInt()
		if i < lo || i > hi {
			return fmt.Errorf("must be between %d and %d, got %d", lo, hi, i)
		}
		return nil
	}
}

// AbsoluteURL requires an http or https URL with a host.
func AbsoluteURL() Predicate {
	return func(v Value) error {
		s, _ := v.AsString()
		u, err := url.Parse(s)
		if err != nil {
			return fmt.Errorf("not a valid URL: %v", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
		}
		if u.Host == "" {
			return errors.New("URL has no host")
		}
		return nil
	}
}

// TrustedDomains requires at least one entry and rejects empty entries or
// entries with whitespace. "*" and patterns such as "*.example.com" are
// accepted.
func TrustedDomains() Predicate {
	return func(v Value) error {
		items, _ := v.AsList()
		if len(items) == 0 {
			return errors.New("must list at least one domain")
		}
		var problems []string
		for i, item := range items {
			s, _ := item.AsString()
			if strings.TrimSpace(s) == "" {
				problems = append(problems, fmt.Sprintf("entry %d is empty", i))
				continue
			}
			if strings.ContainsAny(s, " \t\r\n/") {
				problems = append(problems, fmt.Sprintf("entry %d (%q) is not a host name", i, s))
			}
		}
		if len(problems) > 0 {
			return errors.New(strings.Join(problems, ", "))
		}
		return nil
	}
}

// AppsPaths checks each apps_paths item on its own and requires at least one
// writable item.
func AppsPaths() Predicate {
	return func(v Value) error {
		entries, err := DecodeAppsPaths(v)
		if err != nil {
			return err
		}
		var problems []string
		writable := 0
		for i, e := range entries {
			if strings.TrimSpace(e.Path) == "" {
				problems = append(problems, fmt.Sprintf("[%d].path must not be empty", i))
			}
			if !strings.HasPrefix(e.URL, "/") {
				problems = append(problems, fmt.Sprintf("[%d].url must start with \"/\"", i))
			}
			if e.Writable {
				writable++
			}
		}
		if writable == 0 {
			problems = append(problems, "at least one entry must be writable")
		}
		if len(problems) > 0 {
			return errors.New(strings.Join(problems, ", "))
		}
		return nil
	}
}
