package lamp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"tinygo.org/x/bluetooth"

	"github.com/dokzlo13/ambilightd/internal/protocol"
)

var (
	adapterOnce sync.Once
	adapterErr  error
)

// enableAdapter initializes the default BLE adapter once per process.
func enableAdapter() (*bluetooth.Adapter, error) {
	adapterOnce.Do(func() {
		adapterErr = bluetooth.DefaultAdapter.Enable()
	})
	if adapterErr != nil {
		return nil, fmt.Errorf("enable BLE adapter: %w", adapterErr)
	}
	return bluetooth.DefaultAdapter, nil
}

// BLETransport drives one lamp over the default BLE adapter.
type BLETransport struct {
	address     string
	serviceUUID bluetooth.UUID
	charUUID    bluetooth.UUID

	device    bluetooth.Device
	char      bluetooth.DeviceCharacteristic
	connected bool
}

// NewBLETransport creates a transport for the lamp at the given MAC
// address, using the Magic Lantern protocol UUIDs.
func NewBLETransport(address string) (*BLETransport, error) {
	svc, err := bluetooth.ParseUUID(protocol.ServiceUUID)
	if err != nil {
		return nil, fmt.Errorf("parse service UUID: %w", err)
	}
	char, err := bluetooth.ParseUUID(protocol.CommandCharUUID)
	if err != nil {
		return nil, fmt.Errorf("parse characteristic UUID: %w", err)
	}
	if _, err := bluetooth.ParseMAC(address); err != nil {
		return nil, fmt.Errorf("parse lamp address %q: %w", address, err)
	}

	return &BLETransport{
		address:     address,
		serviceUUID: svc,
		charUUID:    char,
	}, nil
}

// Connect implements Transport. The attempt is bounded by ctx; the
// remaining ctx budget is handed to the BLE stack as the connection
// timeout.
func (t *BLETransport) Connect(ctx context.Context) error {
	adapter, err := enableAdapter()
	if err != nil {
		return err
	}

	mac, _ := bluetooth.ParseMAC(t.address) // validated in constructor
	addr := bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}}

	timeout := 10 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return ctx.Err()
		}
	}

	params := bluetooth.ConnectionParams{
		ConnectionTimeout: bluetooth.NewDuration(timeout),
	}

	link, err := dialLink(ctx, func() (bleLink, error) {
		device, err := adapter.Connect(addr, params)
		if err != nil {
			return bleLink{}, err
		}
		char, err := t.discoverCommandChar(device)
		if err != nil {
			_ = device.Disconnect()
			return bleLink{}, err
		}
		return bleLink{device: device, char: char}, nil
	}, func(link bleLink) {
		log.Debug().Str("address", t.address).Msg("Dropping abandoned BLE link")
		_ = link.device.Disconnect()
	})
	if err != nil {
		if err == ctx.Err() {
			return err
		}
		return fmt.Errorf("connect %s: %w", t.address, err)
	}

	t.device = link.device
	t.char = link.char
	t.connected = true
	log.Debug().Str("address", t.address).Msg("BLE link established")
	return nil
}

// bleLink is an established device plus its command characteristic.
type bleLink struct {
	device bluetooth.Device
	char   bluetooth.DeviceCharacteristic
}

// dialLink runs dial until it finishes or ctx expires. Only a result
// that wins the race reaches the caller; a success arriving after ctx
// expired is handed to drop so an abandoned attempt never leaves the
// lamp holding a live link, and never touches the caller's fields.
func dialLink(ctx context.Context, dial func() (bleLink, error), drop func(bleLink)) (bleLink, error) {
	type result struct {
		link bleLink
		err  error
	}

	done := make(chan result, 1)
	go func() {
		link, err := dial()
		done <- result{link: link, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if res := <-done; res.err == nil {
				drop(res.link)
			}
		}()
		return bleLink{}, ctx.Err()
	case res := <-done:
		return res.link, res.err
	}
}

func (t *BLETransport) discoverCommandChar(device bluetooth.Device) (bluetooth.DeviceCharacteristic, error) {
	services, err := device.DiscoverServices([]bluetooth.UUID{t.serviceUUID})
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("discover service: %w", err)
	}
	if len(services) == 0 {
		return bluetooth.DeviceCharacteristic{}, errors.New("command service not found")
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{t.charUUID})
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("discover characteristic: %w", err)
	}
	if len(chars) == 0 {
		return bluetooth.DeviceCharacteristic{}, errors.New("command characteristic not found")
	}
	return chars[0], nil
}

// Write implements Transport using a write-without-response, the only
// write mode the lamp supports.
func (t *BLETransport) Write(ctx context.Context, data []byte) error {
	if !t.connected {
		return errors.New("transport not connected")
	}

	done := make(chan error, 1)
	go func() {
		_, err := t.char.WriteWithoutResponse(data)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("write %s: %w", t.address, err)
		}
		return nil
	}
}

// Disconnect implements Transport.
func (t *BLETransport) Disconnect() error {
	if !t.connected {
		return nil
	}
	t.connected = false
	if err := t.device.Disconnect(); err != nil {
		return fmt.Errorf("disconnect %s: %w", t.address, err)
	}
	return nil
}
