package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend"
)

func init() {
	backend.Register(backend.BackendNative, func() backend.DeviceBackend {
		return NewNativeBackend()
	})
}

// NativeBackend runs frame graphs on a gogpu/wgpu HAL device.
//
// Init opens the best HAL backend registered with hal.RegisterBackend.
// Import github.com/gogpu/wgpu/hal/allbackends (or a single HAL backend)
// for side effects to make real GPUs visible. A backend built from an
// external device (NewFromHAL, NewFromProvider) never destroys it.
type NativeBackend struct {
	mu sync.Mutex

	instance hal.Instance
	adapter  hal.Adapter
	device   hal.Device
	queue    hal.Queue
	info     gputypes.AdapterInfo

	gpu      *Device
	external bool
}

// NewNativeBackend creates a backend that opens its own device at Init.
func NewNativeBackend() *NativeBackend {
	return &NativeBackend{}
}

// NewFromHAL creates an initialized backend over an existing device and
// queue owned by the caller.
func NewFromHAL(device hal.Device, queue hal.Queue) (*NativeBackend, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("native: nil HAL device or queue")
	}
	return &NativeBackend{
		device:   device,
		queue:    queue,
		gpu:      NewDevice(device, queue),
		external: true,
	}, nil
}

// NewFromProvider shares the device of a gpucontext.DeviceProvider, for
// example a gogpu window. The provider must hand out HAL objects, either
// through HalDevice/HalQueue accessors or directly from Device/Queue.
func NewFromProvider(provider gpucontext.DeviceProvider) (*NativeBackend, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	var dev, queue any
	if hp, ok := provider.(halProvider); ok {
		dev, queue = hp.HalDevice(), hp.HalQueue()
	} else {
		dev, queue = provider.Device(), provider.Queue()
	}
	device, ok := dev.(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("native: provider device is not hal.Device")
	}
	q, ok := queue.(hal.Queue)
	if !ok || q == nil {
		return nil, fmt.Errorf("native: provider queue is not hal.Queue")
	}
	b, err := NewFromHAL(device, q)
	if err != nil {
		return nil, err
	}
	info := provider.AdapterInfo()
	b.info.Name = info.Name
	framegraph.Logger().Info("native: sharing provider device",
		"adapter", info.Name, "type", info.Type.String())
	return b, nil
}

// Name returns the backend identifier.
func (b *NativeBackend) Name() string {
	return backend.BackendNative
}

// Init opens a device on the first adapter of the best registered HAL
// backend. It is a no-op for initialized and external backends.
func (b *NativeBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.gpu != nil {
		return nil
	}

	api, err := hal.SelectBestBackend()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoGPU, err)
	}
	if api.Variant() == gputypes.BackendEmpty {
		framegraph.Logger().Warn("native: no GPU HAL backend registered, using a CPU fallback")
	}

	instance, err := api.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return fmt.Errorf("native: create %s instance: %w", api.Variant(), err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return ErrNoGPU
	}
	exposed := adapters[0]
	open, err := exposed.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("native: open %q: %w", exposed.Info.Name, err)
	}

	b.instance = instance
	b.adapter = exposed.Adapter
	b.device = open.Device
	b.queue = open.Queue
	b.info = exposed.Info
	b.gpu = NewDevice(open.Device, open.Queue)

	framegraph.Logger().Info("native: device opened",
		"backend", api.Variant().String(),
		"adapter", exposed.Info.Name,
		"driver", exposed.Info.Driver)
	return nil
}

// Close destroys the device, adapter and instance this backend opened.
func (b *NativeBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.gpu == nil {
		return
	}
	if live := b.gpu.Live(); live != 0 {
		framegraph.Logger().Warn("native: device closed with live objects", "live", live)
	}
	if !b.external {
		if err := b.device.WaitIdle(); err != nil {
			framegraph.Logger().Warn("native: wait idle", "err", err)
		}
		b.device.Destroy()
		if b.adapter != nil {
			b.adapter.Destroy()
		}
		if b.instance != nil {
			b.instance.Destroy()
		}
	}
	b.instance, b.adapter, b.device, b.queue = nil, nil, nil, nil
	b.gpu = nil
}

// Device returns the graph device, or nil before Init.
func (b *NativeBackend) Device() framegraph.Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gpu == nil {
		return nil
	}
	return b.gpu
}

// HALDevice returns the concrete device, or nil before Init.
func (b *NativeBackend) HALDevice() *Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gpu
}

// AdapterInfo describes the adapter the device was opened on.
func (b *NativeBackend) AdapterInfo() gputypes.AdapterInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.info
}

// NewCommandContext begins encoding a frame.
func (b *NativeBackend) NewCommandContext(label string) (backend.CommandContext, error) {
	b.mu.Lock()
	dev := b.gpu
	b.mu.Unlock()
	if dev == nil {
		return nil, backend.ErrNotInitialized
	}
	ctx, err := newCommandContext(dev, label)
	if err != nil {
		return nil, err
	}
	return ctx, nil
}
