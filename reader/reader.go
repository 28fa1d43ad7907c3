/*
Copyright (c) the uhf-rfid-sdk authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package reader

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/aaamil13/uhf-rfid-sdk/cph"
	"github.com/aaamil13/uhf-rfid-sdk/transport"
)

// TagCallback handles one decoded tag observation.
type TagCallback func(tag cph.TagReadData) error

// Reader is the typed facade over one connected CPH reader. Open connects,
// Close unconditionally disconnects and tears the dispatcher down.
type Reader struct {
	t       transport.Transport
	d       *Dispatcher
	address uint16

	wrapMu sync.Mutex
	wraps  map[uintptr]NotificationCallback
}

// Option tweaks a Reader at Open time.
type Option func(*Reader, *[]DispatcherOption)

// WithAddress targets commands at a non-default device address.
func WithAddress(address uint16) Option {
	return func(r *Reader, _ *[]DispatcherOption) { r.address = address }
}

// WithTimeout overrides the per-command response timeout.
func WithTimeout(d time.Duration) Option {
	return func(_ *Reader, dopts *[]DispatcherOption) {
		*dopts = append(*dopts, WithResponseTimeout(d))
	}
}

// WithStatsServer routes dispatcher counters to the given server.
func WithStatsServer(s StatsServer) Option {
	return func(_ *Reader, dopts *[]DispatcherOption) {
		*dopts = append(*dopts, WithStats(s))
	}
}

// Open connects the transport and wires a dispatcher to it.
func Open(ctx context.Context, t transport.Transport, opts ...Option) (*Reader, error) {
	r := &Reader{t: t, wraps: map[uintptr]NotificationCallback{}}
	var dopts []DispatcherOption
	for _, opt := range opts {
		opt(r, &dopts)
	}
	if err := t.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connecting reader: %w", err)
	}
	r.d = NewDispatcher(t, dopts...)
	return r, nil
}

// Close tears down the dispatcher and disconnects, in that order, so pending
// waiters observe cancellation rather than hang.
func (r *Reader) Close() error {
	r.d.Cleanup()
	r.t.UnregisterSink()
	return r.t.Disconnect()
}

// Dispatcher exposes the underlying dispatcher, mostly for subscriptions to
// raw notification codes.
func (r *Reader) Dispatcher() *Dispatcher {
	return r.d
}

func (r *Reader) execute(ctx context.Context, code cph.FrameCode, params []byte, encodeErr error) (cph.Values, error) {
	if encodeErr != nil {
		return nil, fmt.Errorf("failed to encode request for command 0x%02X: %w", uint8(code), encodeErr)
	}
	return r.d.SendCommandWaitResponse(ctx, code, r.address, params)
}

// GetVersion queries software version and device type.
func (r *Reader) GetVersion(ctx context.Context) (cph.DeviceInfo, error) {
	vals, err := r.execute(ctx, cph.CmdGetVersion, cph.EncodeGetVersionRequest(), nil)
	if err != nil {
		return cph.DeviceInfo{}, err
	}
	return cph.DecodeGetVersionResponse(vals)
}

// Reboot restarts the reader.
func (r *Reader) Reboot(ctx context.Context) error {
	_, err := r.execute(ctx, cph.CmdReboot, cph.EncodeRebootRequest(), nil)
	return err
}

// SetDefaultParams restores the reader's factory parameters.
func (r *Reader) SetDefaultParams(ctx context.Context) error {
	_, err := r.execute(ctx, cph.CmdSetDefaultParams, cph.EncodeSetDefaultParamsRequest(), nil)
	return err
}

// StartInventory begins continuous inventory; observations arrive as tag
// notifications.
func (r *Reader) StartInventory(ctx context.Context) error {
	_, err := r.execute(ctx, cph.CmdStartInventory, cph.EncodeStartInventoryRequest(nil), nil)
	return err
}

// StopInventory ends continuous inventory.
func (r *Reader) StopInventory(ctx context.Context) error {
	_, err := r.execute(ctx, cph.CmdStopInventory, cph.EncodeStopInventoryRequest(), nil)
	return err
}

// InventorySingleBurst runs one inventory round.
func (r *Reader) InventorySingleBurst(ctx context.Context) error {
	_, err := r.execute(ctx, cph.CmdActiveInventory, cph.EncodeActiveInventoryRequest(nil), nil)
	return err
}

// SetPower sets the RF output power in dBm (0..30).
func (r *Reader) SetPower(ctx context.Context, powerDBm int) error {
	params, err := cph.EncodeSetPowerRequest(powerDBm)
	_, err = r.execute(ctx, cph.CmdSetParameter, params, err)
	return err
}

// GetPower queries the RF output power in dBm.
func (r *Reader) GetPower(ctx context.Context) (int, error) {
	params, err := cph.EncodeQueryParameterRequest(cph.ParamTypePower)
	vals, err := r.execute(ctx, cph.CmdQueryParameter, params, err)
	if err != nil {
		return 0, err
	}
	return cph.DecodeGetPowerResponse(vals)
}

// SetBuzzer switches the buzzer on or off.
func (r *Reader) SetBuzzer(ctx context.Context, on bool) error {
	params, err := cph.EncodeSetBuzzerRequest(on)
	_, err = r.execute(ctx, cph.CmdSetParameter, params, err)
	return err
}

// GetBuzzer queries the buzzer state.
func (r *Reader) GetBuzzer(ctx context.Context) (bool, error) {
	params, err := cph.EncodeQueryParameterRequest(cph.ParamTypeBuzzer)
	vals, err := r.execute(ctx, cph.CmdQueryParameter, params, err)
	if err != nil {
		return false, err
	}
	return cph.DecodeGetBuzzerResponse(vals)
}

// SetFilterTime sets the duplicate-tag filtering window in seconds.
func (r *Reader) SetFilterTime(ctx context.Context, seconds int) error {
	params, err := cph.EncodeSetFilterTimeRequest(seconds)
	_, err = r.execute(ctx, cph.CmdSetParameter, params, err)
	return err
}

// GetFilterTime queries the duplicate-tag filtering window in seconds.
func (r *Reader) GetFilterTime(ctx context.Context) (int, error) {
	params, err := cph.EncodeQueryParameterRequest(cph.ParamTypeTagFilterTime)
	vals, err := r.execute(ctx, cph.CmdQueryParameter, params, err)
	if err != nil {
		return 0, err
	}
	return cph.DecodeGetFilterTimeResponse(vals)
}

// QueryParameter queries an arbitrary single parameter and returns the echoed
// value: its raw bytes, plus the typed fields for sub-types the codec knows.
func (r *Reader) QueryParameter(ctx context.Context, paramType cph.ParamType) (cph.SingleParameter, error) {
	params, err := cph.EncodeQueryParameterRequest(paramType)
	vals, err := r.execute(ctx, cph.CmdQueryParameter, params, err)
	if err != nil {
		return cph.SingleParameter{}, err
	}
	return cph.DecodeQueryParameterResponse(paramType, vals)
}

// ReadTagMemory reads wordCount words from the given bank. A nil password
// means the default all-zero access password.
func (r *Reader) ReadTagMemory(ctx context.Context, bank cph.MemBank, wordPtr, wordCount int, password []byte) ([]byte, error) {
	params, err := cph.EncodeReadTagMemoryRequest(bank, wordPtr, wordCount, password)
	vals, err := r.execute(ctx, cph.CmdReadTag, params, err)
	if err != nil {
		return nil, err
	}
	return cph.DecodeReadTagMemoryResponse(bank, vals)
}

// WriteTagMemory writes data (a whole number of words) to the given bank.
func (r *Reader) WriteTagMemory(ctx context.Context, bank cph.MemBank, wordPtr int, data, password []byte) error {
	params, err := cph.EncodeWriteTagMemoryRequest(bank, wordPtr, data, password)
	_, err = r.execute(ctx, cph.CmdWriteTag, params, err)
	return err
}

// LockTag applies the given lock type with the access password.
func (r *Reader) LockTag(ctx context.Context, lockType cph.LockType, password []byte) error {
	params, err := cph.EncodeLockTagRequest(lockType, password)
	_, err = r.execute(ctx, cph.CmdLockTag, params, err)
	return err
}

// KillTag permanently disables the tag using its 4-byte kill password.
func (r *Reader) KillTag(ctx context.Context, killPassword []byte) error {
	params, err := cph.EncodeKillTagRequest(killPassword)
	_, err = r.execute(ctx, cph.CmdLockTag, params, err)
	return err
}

// GetRTC queries the reader's real-time clock.
func (r *Reader) GetRTC(ctx context.Context) (time.Time, error) {
	vals, err := r.execute(ctx, cph.CmdQueryRTCTime, cph.EncodeQueryRTCRequest(), nil)
	if err != nil {
		return time.Time{}, err
	}
	return cph.DecodeGetRTCResponse(vals)
}

// SetRTC sets the reader's real-time clock.
func (r *Reader) SetRTC(ctx context.Context, t time.Time) error {
	params, err := cph.EncodeSetRTCRequest(t)
	_, err = r.execute(ctx, cph.CmdSetRTCTime, params, err)
	return err
}

// GetExtParams queries the extended parameter block.
func (r *Reader) GetExtParams(ctx context.Context) (cph.ExtParams, error) {
	vals, err := r.execute(ctx, cph.CmdQueryExtParam, nil, nil)
	if err != nil {
		return cph.ExtParams{}, err
	}
	return cph.DecodeGetExtParamsResponse(vals)
}

// SetExtParams writes the extended parameter block.
func (r *Reader) SetExtParams(ctx context.Context, p cph.ExtParams) error {
	params, err := cph.EncodeSetExtParamsRequest(p)
	_, err = r.execute(ctx, cph.CmdSetExtParam, params, err)
	return err
}

// GetWorkingParams queries the working parameter block.
func (r *Reader) GetWorkingParams(ctx context.Context) (cph.WorkingParams, error) {
	vals, err := r.execute(ctx, cph.CmdQueryWorkingParam, nil, nil)
	if err != nil {
		return cph.WorkingParams{}, err
	}
	return cph.DecodeGetWorkingParamsResponse(vals)
}

// SetWorkingParams writes the working parameter block.
func (r *Reader) SetWorkingParams(ctx context.Context, p cph.WorkingParams) error {
	params, err := cph.EncodeSetWorkingParamsRequest(p)
	_, err = r.execute(ctx, cph.CmdSetWorkingParam, params, err)
	return err
}

// GetTransportParams queries the transport parameter block.
func (r *Reader) GetTransportParams(ctx context.Context) (cph.TransportParams, error) {
	vals, err := r.execute(ctx, cph.CmdQueryTransportParam, nil, nil)
	if err != nil {
		return cph.TransportParams{}, err
	}
	return cph.DecodeGetTransportParamsResponse(vals)
}

// SetTransportParams writes the transport parameter block.
func (r *Reader) SetTransportParams(ctx context.Context, p cph.TransportParams) error {
	params, err := cph.EncodeSetTransportParamsRequest(p)
	_, err = r.execute(ctx, cph.CmdSetTransportParam, params, err)
	return err
}

// GetAdvanceParams queries the RF tuning parameter block.
func (r *Reader) GetAdvanceParams(ctx context.Context) (cph.AdvanceParams, error) {
	vals, err := r.execute(ctx, cph.CmdQueryAdvanceParam, nil, nil)
	if err != nil {
		return cph.AdvanceParams{}, err
	}
	return cph.DecodeGetAdvanceParamsResponse(vals)
}

// SetAdvanceParams writes the RF tuning parameter block.
func (r *Reader) SetAdvanceParams(ctx context.Context, p cph.AdvanceParams) error {
	params, err := cph.EncodeSetAdvanceParamsRequest(p)
	_, err = r.execute(ctx, cph.CmdSetAdvanceParam, params, err)
	return err
}

// GetUsbDataParams queries the USB HID parameter block.
func (r *Reader) GetUsbDataParams(ctx context.Context) (cph.UsbDataParams, error) {
	vals, err := r.execute(ctx, cph.CmdQueryUsbData, nil, nil)
	if err != nil {
		return cph.UsbDataParams{}, err
	}
	return cph.DecodeGetUsbDataParamsResponse(vals)
}

// SetUsbDataParams writes the USB HID parameter block.
func (r *Reader) SetUsbDataParams(ctx context.Context, p cph.UsbDataParams) error {
	params, err := cph.EncodeSetUsbDataParamsRequest(p)
	_, err = r.execute(ctx, cph.CmdSetUsbData, params, err)
	return err
}

// GetDataFlagParams queries the upload data format block.
func (r *Reader) GetDataFlagParams(ctx context.Context) (cph.DataFlagParams, error) {
	vals, err := r.execute(ctx, cph.CmdQueryDataFlag, nil, nil)
	if err != nil {
		return cph.DataFlagParams{}, err
	}
	return cph.DecodeGetDataFlagParamsResponse(vals)
}

// SetDataFlagParams writes the upload data format block.
func (r *Reader) SetDataFlagParams(ctx context.Context, p cph.DataFlagParams) error {
	params, err := cph.EncodeSetDataFlagParamsRequest(p)
	_, err = r.execute(ctx, cph.CmdSetDataFlag, params, err)
	return err
}

// GetModbusParams queries the Modbus settings.
func (r *Reader) GetModbusParams(ctx context.Context) (cph.ModbusParams, error) {
	vals, err := r.execute(ctx, cph.CmdQueryModbusParam, nil, nil)
	if err != nil {
		return cph.ModbusParams{}, err
	}
	return cph.DecodeGetModbusParamsResponse(vals)
}

// SetModbusParams writes the Modbus settings.
func (r *Reader) SetModbusParams(ctx context.Context, p cph.ModbusParams) error {
	params, err := cph.EncodeSetModbusParamsRequest(p)
	_, err = r.execute(ctx, cph.CmdSetModbusParam, params, err)
	return err
}

// RelayOperation drives the relay output.
func (r *Reader) RelayOperation(ctx context.Context, state cph.RelayState) error {
	params, err := cph.EncodeRelayOpRequest(state)
	_, err = r.execute(ctx, cph.CmdRelayOp, params, err)
	return err
}

// PlayAudio sends audio data to the reader. The caller chooses the encoding.
func (r *Reader) PlayAudio(ctx context.Context, audio []byte) error {
	params, err := cph.EncodeAudioPlayRequest(audio)
	_, err = r.execute(ctx, cph.CmdAudioPlay, params, err)
	return err
}

// RegisterTagCallback subscribes a decoded-tag callback to both online and
// offline tag upload notifications.
func (r *Reader) RegisterTagCallback(cb TagCallback) {
	key := reflect.ValueOf(cb).Pointer()
	r.wrapMu.Lock()
	wrapped, ok := r.wraps[key]
	if !ok {
		wrapped = func(_ cph.FrameType, _ uint16, code cph.FrameCode, vals cph.Values) error {
			tag, err := cph.TagReadDataFromValues(vals)
			if err != nil {
				return fmt.Errorf("decoding tag notification 0x%02X: %w", uint8(code), err)
			}
			return cb(tag)
		}
		r.wraps[key] = wrapped
	}
	r.wrapMu.Unlock()
	if ok {
		log.Warnf("tag callback already registered")
		return
	}
	r.d.RegisterNotificationCallback(cph.NotifTagUploaded, wrapped)
	r.d.RegisterNotificationCallback(cph.NotifOfflineTagUploaded, wrapped)
}

// UnregisterTagCallback removes a previously registered decoded-tag callback.
func (r *Reader) UnregisterTagCallback(cb TagCallback) {
	key := reflect.ValueOf(cb).Pointer()
	r.wrapMu.Lock()
	wrapped, ok := r.wraps[key]
	if ok {
		delete(r.wraps, key)
	}
	r.wrapMu.Unlock()
	if !ok {
		log.Warnf("tag callback was not registered")
		return
	}
	r.d.UnregisterCallbackFromAll(wrapped)
}

// RegisterRecordCallback subscribes to record upload notifications.
func (r *Reader) RegisterRecordCallback(cb NotificationCallback) {
	r.d.RegisterNotificationCallback(cph.NotifRecordUploaded, cb)
}

// UnregisterRecordCallback removes a record upload subscription.
func (r *Reader) UnregisterRecordCallback(cb NotificationCallback) {
	r.d.UnregisterNotificationCallback(cph.NotifRecordUploaded, cb)
}

// RegisterHeartbeatCallback subscribes to heartbeat notifications.
func (r *Reader) RegisterHeartbeatCallback(cb NotificationCallback) {
	r.d.RegisterNotificationCallback(cph.NotifHeartbeat, cb)
}

// UnregisterHeartbeatCallback removes a heartbeat subscription.
func (r *Reader) UnregisterHeartbeatCallback(cb NotificationCallback) {
	r.d.UnregisterNotificationCallback(cph.NotifHeartbeat, cb)
}
