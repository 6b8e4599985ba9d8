package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamedaylabs/gameday-core/pkg/catalog"
	"github.com/gamedaylabs/gameday-core/pkg/constants"
)

const sampleConfig = `
components:
  - name: ALB Security Group
    category: security
    mode: easy
    restoreClass: network
    resources: [ALB_SG]
  - name: S3 Public Access
    category: security
    mode: easy
    restoreClass: data
    resources: [S3_BUCKET]
  - name: EC2
    category: resilience
    mode: easy
    restoreClass: compute
    resources: [EC2_INSTANCE_1, EC2_INSTANCE_2]
  - name: EC2 Process
    category: resilience
    mode: hard
    restoreClass: compute
    excludeFromHard: true
    resources: [EC2_INSTANCE_1]
resources:
  - type: ALB_SG
    handle: sg-0def
    arn: arn:aws:ec2:sg/sg-0def
  - type: S3_BUCKET
    handle: demo-bucket
  - type: EC2_INSTANCE_1
    handle: i-0abc
  - type: EC2_INSTANCE_2
    handle: i-0xyz
workloadTargets: [EC2_INSTANCE_1, EC2_INSTANCE_2]
engine:
  observationInterval: 2s
  checkTimeout: 3s
api:
  listenAddress: ":9000"
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Len(t, cfg.Components, 4)
	assert.Equal(t, []string{"EC2_INSTANCE_1", "EC2_INSTANCE_2"}, cfg.WorkloadTargets)
	assert.Equal(t, 2*time.Second, cfg.Engine.ObservationInterval.AsDuration())
	assert.Equal(t, 3*time.Second, cfg.Engine.CheckTimeout.AsDuration())
	assert.Equal(t, ":9000", cfg.API.ListenAddress)

	// Unset fields fall back to defaults
	assert.Equal(t, constants.DefaultStopWaitTimeout, cfg.Engine.StopWaitTimeout.AsDuration())
	assert.Equal(t, constants.DefaultRestoreRetries, cfg.Engine.RestoreRetries)
}

func TestParseConfigRejectsEmpty(t *testing.T) {
	_, err := ParseConfig([]byte("components: []"))
	assert.Error(t, err)
}

func TestParseConfigRejectsBadDuration(t *testing.T) {
	_, err := ParseConfig([]byte(`
components:
  - name: EC2
    category: resilience
    mode: easy
    restoreClass: compute
engine:
  checkTimeout: soon
`))
	assert.Error(t, err)
}

func TestCatalogAndRegistryFromConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	cat, err := cfg.Catalog()
	require.NoError(t, err)
	assert.Len(t, cat.ByCategory(catalog.CategorySecurity), 2)

	comp, ok := cat.Get("EC2 Process")
	require.True(t, ok)
	assert.True(t, comp.ExcludeFromHard)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	m, ok := reg.Lookup("EC2_INSTANCE_2")
	require.True(t, ok)
	assert.Equal(t, "i-0xyz", m.Handle)
}

func TestParseConfigRejectsDuplicateComponents(t *testing.T) {
	_, err := ParseConfig([]byte(`
components:
  - name: EC2
    category: resilience
    mode: easy
    restoreClass: compute
  - name: EC2
    category: resilience
    mode: hard
    restoreClass: compute
`))
	assert.Error(t, err)
}
