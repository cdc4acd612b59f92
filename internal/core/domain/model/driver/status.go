package driver

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

type Status int

const (
	UnknownStatus Status = iota
	Available
	Busy
	Offline
	Suspended
)

var statusStrings = map[Status]string{
	Available: "available",
	Busy:      "busy",
	Offline:   "offline",
	Suspended: "suspended",
}

func ParseStatus(s string) (Status, error) {
	for status, str := range statusStrings {
		if str == s {
			return status, nil
		}
	}
	return UnknownStatus, errs.NewValueIsInvalidErrorWithCause("driver status", fmt.Errorf("%q is not a driver status", s))
}

func (s Status) String() string {
	if str, ok := statusStrings[s]; ok {
		return str
	}
	return "unknown"
}

func (s Status) Validate() error {
	if _, ok := statusStrings[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("driver status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// VehicleType bounds what a driver can carry; capacity itself is per driver.
type VehicleType int

const (
	UnknownVehicle VehicleType = iota
	Motorcycle
	Car
	Van
	Truck
)

var vehicleStrings = map[VehicleType]string{
	Motorcycle: "motorcycle",
	Car:        "car",
	Van:        "van",
	Truck:      "truck",
}

func ParseVehicleType(s string) (VehicleType, error) {
	for v, str := range vehicleStrings {
		if str == s {
			return v, nil
		}
	}
	return UnknownVehicle, errs.NewValueIsInvalidErrorWithCause("vehicle type", fmt.Errorf("%q is not a vehicle type", s))
}

func (v VehicleType) String() string {
	if str, ok := vehicleStrings[v]; ok {
		return str
	}
	return "unknown"
}

func (v VehicleType) Validate() error {
	if _, ok := vehicleStrings[v]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("vehicle type", fmt.Errorf("%d is not a valid vehicle type", v))
	}
	return nil
}
