// Package driver contains the Driver aggregate owned by the driver registry:
// availability, vehicle capacity, zone coverage and the delivery rating.
//
// Status changes:
//
//	available <──> busy        (route start / route end)
//	available <──> offline     (admin or driver app)
//	any       ──>  suspended   (admin)
//	suspended ──>  available   (admin reinstatement)
//
// A suspended driver can neither be assigned a new route nor be marked busy or available.
package driver
