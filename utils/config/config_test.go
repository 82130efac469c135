package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v2"
)

func baseConfig() Config {
	return Config{
		Control: Control{Step: ControlStep{Start: 0, Total: 100, Interval: 1}},
		Road:    Road{Length: 1000, Lanes: 2, Model: ModelIDM},
	}
}

func TestNewRuntimeConfig(t *testing.T) {
	rc, err := NewRuntimeConfig(baseConfig())
	assert.Nil(t, err)
	assert.Equal(t, int32(100), rc.C.Step.Total)
	assert.Equal(t, ModelIDM, rc.All.Road.Model)
}

func TestNewRuntimeConfigDefaults(t *testing.T) {
	c := baseConfig()
	c.Road.Lanes = 0
	c.Road.Model = ""
	rc, err := NewRuntimeConfig(c)
	assert.Nil(t, err)
	assert.Equal(t, 1, rc.All.Road.Lanes)
	assert.Equal(t, ModelIDM, rc.All.Road.Model)
}

func TestNewRuntimeConfigInvalid(t *testing.T) {
	c := baseConfig()
	c.Control.Step.Interval = 0
	_, err := NewRuntimeConfig(c)
	assert.NotNil(t, err)

	c = baseConfig()
	c.Control.Step.Total = -1
	_, err = NewRuntimeConfig(c)
	assert.NotNil(t, err)

	c = baseConfig()
	c.Road.Length = 0
	_, err = NewRuntimeConfig(c)
	assert.NotNil(t, err)

	c = baseConfig()
	c.Road.Model = "gipps"
	_, err = NewRuntimeConfig(c)
	assert.NotNil(t, err)
}

func TestYamlUnmarshal(t *testing.T) {
	data := `
control:
  step:
    start: 0
    total: 3600
    interval: 1
road:
  length: 1000
  lanes: 3
  model: particle
velocity:
  vmax: 30
  dmin: 2
  lcar: 5
  k1: 10
  k2: 2
generation:
  count: 50
  truck_ratio: 0.1
  seed: 43
  v_min: 0
  v_max: 10
`
	var c Config
	err := yaml.UnmarshalStrict([]byte(data), &c)
	assert.Nil(t, err)
	assert.Equal(t, ModelParticle, c.Road.Model)
	assert.Nil(t, c.Velocity.RhoC)
	assert.Equal(t, 50, c.Generation.Count)
	rc, err := NewRuntimeConfig(c)
	assert.Nil(t, err)
	assert.Equal(t, 3, rc.All.Road.Lanes)
}
