package analyzer

import (
	"fmt"
	"time"

	"github.com/arloliu/go-plantnet/frame"
	"github.com/arloliu/go-plantnet/process"
)

// SendCommand sends cmd to the plant as one frame. A write failure disconnects the client.
//
// SendCommand is safe for concurrent use with Run and with other SendCommand calls.
func (c *Client) SendCommand(cmd process.Command) error {
	data, err := frame.EncodeCommand(cmd)
	if err != nil {
		return err
	}

	c.connMutex.Lock()
	conn := c.conn
	c.connMutex.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(c.cfg.writeTimeout)); err != nil {
		c.dropConn(conn)
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	n, err := conn.Write(data)
	if err == nil && n == 0 {
		err = fmt.Errorf("zero bytes written")
	}
	if err != nil {
		c.dropConn(conn)
		return fmt.Errorf("%w: write: %w", ErrConnection, err)
	}

	c.logger.Info("command sent", "command", cmd.String())

	return nil
}

// InjectFault asks the plant to fault the sensor of v.
func (c *Client) InjectFault(v process.Variable) error {
	return c.SendCommand(process.InjectFaultCommand(v))
}

// RepairSensor asks the plant to clear the fault of the sensor of v.
func (c *Client) RepairSensor(v process.Variable) error {
	return c.SendCommand(process.RepairCommand(v))
}

// SetActuator switches actuator a of the plant.
func (c *Client) SetActuator(a process.Actuator, on bool) error {
	return c.SendCommand(process.ActuatorCommand(a, on))
}

// SetSetpoint sets the setpoint of v on the plant.
func (c *Client) SetSetpoint(v process.Variable, value float64) error {
	return c.SendCommand(process.SetpointCommand(v, value))
}
