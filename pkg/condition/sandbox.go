package condition

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	exprlang "github.com/expr-lang/expr"

	"github.com/aretw0/surveyflow/pkg/domain"
)

const maxSandboxLength = 4096

// hostTokens never resolve, in the grammar or in the sandbox.
var hostTokens = map[string]bool{
	"window": true, "document": true, "process": true, "globalThis": true,
	"eval": true, "Function": true, "require": true, "import": true,
	"constructor": true, "__proto__": true, "prototype": true,
}

var hostTokenPattern = regexp.MustCompile(`\b(window|document|process|globalThis|eval|Function|require|import|constructor|__proto__|prototype)\b`)

var errSandboxTooLong = errors.New("expression too long for sandbox")

type sandbox struct{}

func newSandbox() *sandbox { return &sandbox{} }

// sanitize strips host tokens and maps strict comparisons onto expr-lang's.
func sanitize(expression string) string {
	s := hostTokenPattern.ReplaceAllString(expression, "")
	s = strings.ReplaceAll(s, "!==", "!=")
	s = strings.ReplaceAll(s, "===", "==")
	return s
}

func (s *sandbox) run(expression string, answers domain.Answers) (bool, error) {
	if len(expression) > maxSandboxLength {
		return false, errSandboxTooLong
	}
	env := make(map[string]any, len(answers))
	for k, v := range answers {
		env[k] = v
	}
	program, err := exprlang.Compile(sanitize(expression),
		exprlang.Env(env),
		exprlang.AllowUndefinedVariables(),
		exprlang.AsBool(),
	)
	if err != nil {
		return false, fmt.Errorf("compile: %w", err)
	}
	out, err := exprlang.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("run: %w", err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T, want bool", out)
	}
	return b, nil
}
