package common

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	RawRequest(method, path, body string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers generic request and response step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the service is healthy$`, steps.serviceIsHealthy)
	ctx.Step(`^I send a raw "([^"]*)" to "([^"]*)" with body:$`, steps.sendRaw)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response detail should be "([^"]*)"$`, steps.detailShouldBe)
	ctx.Step(`^the response detail should mention "([^"]*)"$`, steps.detailShouldMention)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serviceIsHealthy() error {
	if err := s.tc.GET("/health", nil); err != nil {
		return err
	}
	return s.statusShouldBe(200)
}

func (s *commonSteps) sendRaw(method, path string, body *godog.DocString) error {
	return s.tc.RawRequest(strings.ToUpper(method), path, body.Content)
}

func (s *commonSteps) statusShouldBe(expected int) error {
	if got := s.tc.GetLastResponseStatus(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) detail() (string, error) {
	v, err := s.tc.GetResponseField("detail")
	if err != nil {
		return "", err
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("detail is %T, not a string", v)
	}
	return str, nil
}

func (s *commonSteps) detailShouldBe(expected string) error {
	got, err := s.detail()
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected detail %q, got %q", expected, got)
	}
	return nil
}

func (s *commonSteps) detailShouldMention(fragment string) error {
	got, err := s.detail()
	if err != nil {
		return err
	}
	if !strings.Contains(got, fragment) {
		return fmt.Errorf("detail %q does not mention %q", got, fragment)
	}
	return nil
}
