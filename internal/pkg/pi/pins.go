// Package pi names the pins of the Raspberry Pi 40-pin header.
//
// The GPIOn constants are header pin numbers (as used by gobot's raspi adaptor)
// for the BCM GPIO numbered n.
package pi

import "fmt"

const (
	GPIO2  string = "3"
	GPIO3  string = "5"
	GPIO4  string = "7"
	GPIO17 string = "11"
	GPIO27 string = "13"
	GPIO22 string = "15"
	GPIO10 string = "19"
	GPIO9  string = "21"
	GPIO11 string = "23"
	GPIO0  string = "27"
	GPIO5  string = "29"
	GPIO6  string = "31"
	GPIO13 string = "33"
	GPIO19 string = "35"
	GPIO26 string = "37"
	GPIO14 string = "8"
	GPIO15 string = "10"
	GPIO18 string = "12"
	GPIO23 string = "16"
	GPIO24 string = "18"
	GPIO25 string = "22"
	GPIO8  string = "24"
	GPIO7  string = "26"
	GPIO1  string = "28"
	GPIO12 string = "32"
	GPIO16 string = "36"
	GPIO20 string = "38"
	GPIO21 string = "40"
)

var headerPins = map[int]string{
	0: GPIO0, 1: GPIO1, 2: GPIO2, 3: GPIO3, 4: GPIO4, 5: GPIO5, 6: GPIO6, 7: GPIO7,
	8: GPIO8, 9: GPIO9, 10: GPIO10, 11: GPIO11, 12: GPIO12, 13: GPIO13, 14: GPIO14,
	15: GPIO15, 16: GPIO16, 17: GPIO17, 18: GPIO18, 19: GPIO19, 20: GPIO20,
	21: GPIO21, 22: GPIO22, 23: GPIO23, 24: GPIO24, 25: GPIO25, 26: GPIO26, 27: GPIO27,
}

// HeaderPin returns the header pin wired to BCM GPIO bcm
func HeaderPin(bcm int) (string, error) {
	pin, ok := headerPins[bcm]
	if !ok {
		return "", fmt.Errorf("GPIO%d is not on the 40-pin header", bcm)
	}
	return pin, nil
}
