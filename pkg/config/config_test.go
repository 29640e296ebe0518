package config

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestEnvAccessors(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		state := State{Env: map[string]string{}}
		qt.Check(t, RootPathOverride(state), qt.IsNil)
		qt.Check(t, Debug(state), qt.IsFalse)
		qt.Check(t, DefaultNamespace(state), qt.Equals, "local")
		qt.Check(t, DefaultProject(state), qt.Equals, "default")
	})
	t.Run("overridden", func(t *testing.T) {
		state := State{Env: map[string]string{
			EnvDataforgeRoot:      "/srv/dataforge",
			EnvDataforgeNamespace: "prod",
			EnvDataforgeProject:   "vision",
			EnvDataforgeDebug:     "1",
		}}
		root := RootPathOverride(state)
		qt.Assert(t, root, qt.IsNotNil)
		qt.Check(t, *root, qt.Equals, "/srv/dataforge")
		qt.Check(t, Debug(state), qt.IsTrue)
		qt.Check(t, DefaultNamespace(state), qt.Equals, "prod")
		qt.Check(t, DefaultProject(state), qt.Equals, "vision")
	})
	t.Run("debug-set-empty", func(t *testing.T) {
		// presence of the key enables debug, even with an empty value.
		state := State{Env: map[string]string{EnvDataforgeDebug: ""}}
		qt.Check(t, Debug(state), qt.IsTrue)
	})
}
