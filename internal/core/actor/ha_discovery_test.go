package actor

import (
	"testing"

	"github.com/berfenger/pi30bridge/internal/core/domain"
	"github.com/berfenger/pi30bridge/internal/util"

	"github.com/stretchr/testify/assert"
)

func TestDiscoverySensors(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	sensors := DiscoverySensors(&cfg)
	if assert.Len(sensors, 1) {
		assert.Equal(domain.SENSOR_ID_BRIDGE_STATE, sensors[0].Id)
	}

	cfg.MonitorConfig.Enable = true
	sensors = DiscoverySensors(&cfg)
	assert.Len(sensors, 4)

	bridgeId := domain.BridgeDevice(cfg.MQTT.BaseTopic).Id
	for _, sensor := range sensors[1:] {
		assert.Equal(bridgeId, sensor.Device.ViaDevice, "inverter entities hang from the bridge")
		assert.NotEqual(bridgeId, sensor.Device.Id)
	}
}
