package buzzer

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// ErrPinNotFound is returned when the configured GPIO does not exist on this host.
var ErrPinNotFound = errors.New("gpio pin not found")

// PWMActuator drives a GPIO pin with a fixed-frequency PWM signal.
type PWMActuator struct {
	pin       gpio.PinIO
	frequency physic.Frequency
}

// OpenPWM initialises the host drivers and returns an actuator on pinName, silent.
func OpenPWM(pinName string, frequencyHz int) (*PWMActuator, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("%s: %w", pinName, ErrPinNotFound)
	}

	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("set %s low: %w", pinName, err)
	}

	return &PWMActuator{
		pin:       pin,
		frequency: physic.Frequency(frequencyHz) * physic.Hertz,
	}, nil
}

// SetIntensity sets the duty cycle; 0 drives the pin low instead of running a 0% PWM.
func (a *PWMActuator) SetIntensity(percent int) error {
	if err := validatePercent(percent); err != nil {
		return err
	}

	if percent == 0 {
		return a.pin.Out(gpio.Low)
	}

	return a.pin.PWM(dutyFor(percent), a.frequency)
}

// Close drives the pin low and halts the PWM peripheral.
func (a *PWMActuator) Close() error {
	return errors.Join(a.pin.Out(gpio.Low), a.pin.Halt())
}

// dutyFor converts a percentage to a periph duty value.
func dutyFor(percent int) gpio.Duty {
	return gpio.DutyMax / maxPercent * gpio.Duty(percent)
}
