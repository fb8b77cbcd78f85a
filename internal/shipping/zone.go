package shipping

import (
	"fmt"
	"strings"
	"sync"

	"storefront/internal/model"

	"github.com/google/cel-go/cel"
)

// ZoneMatcher decides whether an address falls inside a shipping zone.
// Zip code formulas are CEL boolean expressions over the variable zipCode,
// e.g. `zipCode.startsWith("9")` or `zipCode in ["10001", "10002"]`.
type ZoneMatcher struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewZoneMatcher builds the CEL environment used for zip code formulas
func NewZoneMatcher() (*ZoneMatcher, error) {
	env, err := cel.NewEnv(cel.Variable("zipCode", cel.StringType))
	if err != nil {
		return nil, fmt.Errorf("failed to build zip code formula environment: %w", err)
	}
	return &ZoneMatcher{env: env, programs: make(map[string]cel.Program)}, nil
}

// Compile checks a zip code formula and caches the resulting program
func (m *ZoneMatcher) Compile(formula string) (cel.Program, error) {
	m.mu.RLock()
	prg, ok := m.programs[formula]
	m.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := m.env.Compile(formula)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("invalid zip code formula: %w", iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("zip code formula must evaluate to a bool, got %s", ast.OutputType())
	}
	prg, err := m.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("invalid zip code formula: %w", err)
	}

	m.mu.Lock()
	m.programs[formula] = prg
	m.mu.Unlock()
	return prg, nil
}

// Matches reports whether addr is inside zone. A nil zone matches everything;
// a zone never matches a missing address.
func (m *ZoneMatcher) Matches(zone *model.ShippingZone, addr *Address) bool {
	if zone == nil {
		return true
	}
	if addr == nil {
		return false
	}

	switch {
	case len(zone.AdministrativeAreas) > 0:
		if !containsFold(zone.AdministrativeAreas, addr.AdministrativeArea) {
			return false
		}
	case len(zone.Countries) > 0:
		if !containsFold(zone.Countries, addr.CountryCode) {
			return false
		}
	}

	formula := strings.TrimSpace(zone.ZipCodeConditionFormula)
	if formula == "" {
		return true
	}
	prg, err := m.Compile(formula)
	if err != nil {
		return false
	}
	out, _, err := prg.Eval(map[string]any{"zipCode": addr.ZipCode})
	if err != nil {
		return false
	}
	matched, ok := out.Value().(bool)
	return ok && matched
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
