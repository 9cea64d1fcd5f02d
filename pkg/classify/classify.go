// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package classify infers the class of a responding device from the IP TTL
// left in its reply.
//
// Operating systems start the IP TTL at a small set of canonical values
// (64, 128, 255). The distance between the observed TTL and the closest
// canonical value above it estimates how many hops the reply travelled back.
// Replies with a TTL of 20 or less cannot plausibly come from a far endpoint
// and are treated as injected by an interceptor close to the prober.
package classify

// DeviceClass is the inferred class of a responding device.
type DeviceClass int

const (
	// Unknown is used for probes that did not receive any response.
	Unknown DeviceClass = iota
	// Middlebox is an interceptor answering with an anomalously low TTL.
	Middlebox
	// Linux is a device whose initial TTL is 64.
	Linux
	// Windows is a device whose initial TTL is 128.
	Windows
	// Router is a device whose initial TTL is 255.
	Router
)

// middleboxTTL is the highest observed TTL that is considered injected.
const middleboxTTL = 20

// Initial TTL values of the supported device classes.
const (
	linuxTTL   = 64
	windowsTTL = 128
	routerTTL  = 255
)

// NoEstimate is rendered in place of a back-hop estimate for unanswered probes.
const NoEstimate = "*"

// Classify maps the TTL observed in a reply to a device class and an estimate
// of the number of hops between the device and the prober.
// probeTTL is the TTL the probe was sent with.
//
// For middleboxes the estimate is half the distance between the probe TTL and
// the observed TTL plus one, computed with integer division that truncates
// toward zero.
func Classify(observedTTL, probeTTL int) (DeviceClass, int) {
	switch {
	case observedTTL <= middleboxTTL:
		return Middlebox, (probeTTL-observedTTL)/2 + 1
	case observedTTL <= linuxTTL:
		return Linux, linuxTTL - observedTTL + 1
	case observedTTL <= windowsTTL:
		return Windows, windowsTTL - observedTTL + 1
	default:
		return Router, routerTTL - observedTTL + 1
	}
}

// String returns the display name of the class.
func (c DeviceClass) String() string {
	switch c {
	case Middlebox:
		return "Middlebox"
	case Linux:
		return "Linux"
	case Windows:
		return "Windows"
	case Router:
		return "Router"
	default:
		return "unknown"
	}
}

// Color returns the node color used to render devices of this class.
func (c DeviceClass) Color() string {
	switch c {
	case Middlebox:
		return "red"
	case Linux:
		return "purple"
	case Windows:
		return "blue"
	case Router:
		return "green"
	default:
		return "gray"
	}
}
