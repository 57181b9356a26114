package company

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	POST(path string, body any) error
	PUT(path string, body any) error
	DELETE(path string) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers establishment lifecycle step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &companySteps{tc: tc}

	ctx.Step(`^no establishment exists with siret (\d+)$`, steps.noEstablishment)
	ctx.Step(`^I create an establishment with siret (\d+), siren (\d+) and nic (\d+)$`, steps.create)
	ctx.Step(`^I create an establishment with siret (\d+), siren (\d+), nic (\d+) and commune "([^"]*)"$`, steps.createInCommune)
	ctx.Step(`^I fetch the establishment with siret (\d+)$`, steps.fetch)
	ctx.Step(`^I set "([^"]*)" to "([^"]*)" on siret (\d+)$`, steps.update)
	ctx.Step(`^I delete the establishment with siret (\d+)$`, steps.delete)
	ctx.Step(`^the response should list (\d+) establishments?$`, steps.shouldList)
	ctx.Step(`^the first establishment should have "([^"]*)" equal to "([^"]*)"$`, steps.firstShouldHave)
	ctx.Step(`^the first establishment should have siret (\d+)$`, steps.firstShouldHaveSiret)
}

type companySteps struct {
	tc TestContext
}

func (s *companySteps) noEstablishment(siret string) error {
	// 404 when nothing is there, 200 after a stale run cleanup
	return s.tc.DELETE("/delete/" + siret)
}

func (s *companySteps) create(siret, siren, nic int64) error {
	return s.tc.POST("/", map[string]any{
		"siret": siret,
		"siren": siren,
		"nic":   nic,
	})
}

func (s *companySteps) createInCommune(siret, siren, nic int64, commune string) error {
	return s.tc.POST("/", map[string]any{
		"siret":                       siret,
		"siren":                       siren,
		"nic":                         nic,
		"libelleCommuneEtablissement": commune,
	})
}

func (s *companySteps) fetch(siret string) error {
	return s.tc.GET("/get?siret="+siret, nil)
}

func (s *companySteps) update(field, value, siret string) error {
	return s.tc.PUT("/"+siret, map[string]string{field: value})
}

func (s *companySteps) delete(siret string) error {
	return s.tc.DELETE("/delete/" + siret)
}

func (s *companySteps) records() ([]map[string]any, error) {
	var records []map[string]any
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &records); err != nil {
		return nil, fmt.Errorf("response is not a list of establishments: %w", err)
	}
	return records, nil
}

func (s *companySteps) shouldList(n int) error {
	records, err := s.records()
	if err != nil {
		return err
	}
	if len(records) != n {
		return fmt.Errorf("expected %d establishments, got %d", n, len(records))
	}
	return nil
}

func (s *companySteps) first() (map[string]any, error) {
	records, err := s.records()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no establishment in response")
	}
	return records[0], nil
}

func (s *companySteps) firstShouldHave(field, expected string) error {
	rec, err := s.first()
	if err != nil {
		return err
	}
	if got := fmt.Sprint(rec[field]); got != expected {
		return fmt.Errorf("expected %s=%q, got %q", field, expected, got)
	}
	return nil
}

func (s *companySteps) firstShouldHaveSiret(siret int64) error {
	rec, err := s.first()
	if err != nil {
		return err
	}
	got, ok := rec["siret"].(float64)
	if !ok {
		return fmt.Errorf("siret is %T, not a number", rec["siret"])
	}
	if int64(got) != siret {
		return fmt.Errorf("expected siret %s, got %.0f", strconv.FormatInt(siret, 10), got)
	}
	return nil
}
