package proc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_updatedEnvFrom(t *testing.T) {
	oldEnvs := []string{
		`X=1`,
		`Y=Z=2`,
	}
	newEnvs := updatedEnvFrom(Envs{`X`: `2`}, oldEnvs)
	assert.Equal(t, []string{`X=2`, `Y=Z=2`}, newEnvs)
	envMap := parseEnv(newEnvs)
	assert.Equal(t, `Z=2`, envMap[`Y`])
}

func Test_Script(t *testing.T) {
	p := Proc{
		Prog: "/bin/prog",
		Args: []string{"-graph", "it's.yaml"},
		Envs: Envs{"B": "2", "A": "x y"},
	}
	assert.Equal(t, `env A='x y' B='2' '/bin/prog' '-graph' 'it'\''s.yaml'`, p.Script())
}

func Test_Cmd(t *testing.T) {
	p := Proc{Prog: "true", Envs: Envs{"KUNGFU_TEST": "1"}}
	cmd := p.Cmd(context.Background())
	assert.Contains(t, cmd.Env, "KUNGFU_TEST=1")
	assert.Equal(t, []string{"true"}, cmd.Args)

	e := Envs{"a": "1"}
	e.AddIfMissing("a", "2")
	e.AddIfMissing("b", "3")
	assert.Equal(t, Envs{"a": "1", "b": "3"}, e)
}
