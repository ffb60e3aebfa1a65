package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE        = "bridge"
	SENSOR_ID_INVERTER_REACHABLE  = "inverter_reachable"
	SENSOR_ID_INVERTER_LAST_PROBE = "inverter_last_probe"
	SENSOR_ID_INVERTER_PROBE_TIME = "inverter_probe_time"
	STATE_CLASS_MEASUREMENT       = "measurement"
	DEVICE_CLASS_CONNECTIVITY     = "connectivity"
	DEVICE_CLASS_DURATION         = "duration"
	ENTITY_CLASS_DIAGNOSTIC       = "diagnostic"
	SENSOR_TYPE_SENSOR            = "sensor"
	SENSOR_TYPE_BINARY            = "binary_sensor"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("pi30_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "PI30 Bridge",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("PI30 Bridge %s", md5HashShort(baseTopic)),
	}
}

func InverterDevice(host string, port int) Device {
	addr := fmt.Sprintf("%s:%d", host, port)
	return Device{
		Id:    fmt.Sprintf("pi30_inverter_%s", md5HashShort(addr)),
		Model: "PI30",
		Name:  fmt.Sprintf("PI30 inverter %s", addr),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Bridge connection state
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func MonitorSensors(inverterDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Inverter reachable
	sensors = append(sensors, GenericSensor{
		Device:      inverterDevice,
		Id:          SENSOR_ID_INVERTER_REACHABLE,
		SensorType:  SENSOR_TYPE_BINARY,
		Name:        "Inverter reachable",
		DeviceClass: DEVICE_CLASS_CONNECTIVITY,
		UniqueId:    uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_REACHABLE),
	})

	// Outcome of the last probe
	sensors = append(sensors, GenericSensor{
		Device:         IdDevice(inverterDevice),
		Id:             SENSOR_ID_INVERTER_LAST_PROBE,
		SensorType:     SENSOR_TYPE_SENSOR,
		Name:           "Last probe",
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		Icon:           "mdi:lan-check",
		UniqueId:       uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_LAST_PROBE),
	})

	// Probe round trip
	sensors = append(sensors, GenericSensor{
		Device:            IdDevice(inverterDevice),
		Id:                SENSOR_ID_INVERTER_PROBE_TIME,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Probe time",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_DURATION,
		UnitOfMeasurement: "ms",
		EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
		EnabledByDefault:  optionalBool(false),
		UniqueId:          uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_PROBE_TIME),
	})

	return sensors
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
