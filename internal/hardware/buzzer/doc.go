// Package buzzer drives the piezo buzzer that sounds an alert.
//
// An Actuator only knows intensities (PWM duty cycle in percent). Buzzer maps the
// controller's on/off vocabulary onto it and serialises access to the hardware.
package buzzer
