//go:build rust

package rust

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/backend"
)

// init registers the rust backend on package import.
func init() {
	backend.Register(backend.BackendRust, func() backend.DeviceBackend {
		return &RustBackend{}
	})
}

// RustBackend runs frame graphs on wgpu-native via go-webgpu/webgpu.
// It implements backend.DeviceBackend.
type RustBackend struct {
	mu sync.RWMutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	gpu     *Device
	gpuInfo *GPUInfo
}

// GPUInfo contains information about the selected GPU.
type GPUInfo struct {
	Vendor       string
	Architecture string
	Device       string
	Description  string
	BackendType  string
	AdapterType  string
	VendorID     uint32
	DeviceID     uint32
}

// NewRustBackend creates a new backend. It must be initialized with Init
// before use.
func NewRustBackend() *RustBackend {
	return &RustBackend{}
}

// Name returns the backend identifier.
func (b *RustBackend) Name() string {
	return backend.BackendRust
}

// Init loads wgpu-native, then creates the instance, adapter, device and
// queue.
func (b *RustBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.gpu != nil {
		return nil
	}

	if err := wgpu.Init(); err != nil {
		return fmt.Errorf("%w: %w", ErrLibraryNotFound, err)
	}

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return fmt.Errorf("rust: instance creation failed: %w", err)
	}

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return fmt.Errorf("%w: %w", ErrNoGPU, err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return fmt.Errorf("rust: device creation failed: %w", err)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return fmt.Errorf("rust: queue retrieval failed")
	}

	b.instance, b.adapter, b.device, b.queue = instance, adapter, device, queue
	b.gpu = &Device{device: device, queue: queue}
	b.gpuInfo = b.getGPUInfo()
	b.logGPUInfo()
	return nil
}

// Close releases all backend resources in reverse order of creation.
func (b *RustBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.gpu == nil {
		return
	}
	if live := b.gpu.Live(); live != 0 {
		framegraph.Logger().Warn("rust: device closed with live objects", "live", live)
	}
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.instance.Release()
	b.instance, b.adapter, b.device, b.queue = nil, nil, nil, nil
	b.gpu = nil
	b.gpuInfo = nil
	framegraph.Logger().Debug("rust: backend closed")
}

// Device returns the graph device, or nil before Init.
func (b *RustBackend) Device() framegraph.Device {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.gpu == nil {
		return nil
	}
	return b.gpu
}

// GPUInfoData returns information about the selected GPU, or nil before
// Init.
func (b *RustBackend) GPUInfoData() *GPUInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.gpuInfo
}

// NewCommandContext begins encoding a frame.
func (b *RustBackend) NewCommandContext(label string) (backend.CommandContext, error) {
	b.mu.RLock()
	dev := b.gpu
	b.mu.RUnlock()
	if dev == nil {
		return nil, backend.ErrNotInitialized
	}
	enc := dev.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: stringView(label)})
	runtime.KeepAlive(label)
	if enc == nil {
		return nil, fmt.Errorf("%w: command encoder", ErrCreateFailed)
	}
	return &CommandContext{dev: dev, encoder: enc}, nil
}

func (b *RustBackend) getGPUInfo() *GPUInfo {
	info, err := b.adapter.GetInfo()
	if err != nil {
		return nil
	}
	return &GPUInfo{
		Vendor:       info.Vendor,
		Architecture: info.Architecture,
		Device:       info.Device,
		Description:  info.Description,
		BackendType:  backendTypeToString(info.BackendType),
		AdapterType:  adapterTypeToString(info.AdapterType),
		VendorID:     info.VendorID,
		DeviceID:     info.DeviceID,
	}
}

func (b *RustBackend) logGPUInfo() {
	if b.gpuInfo == nil {
		return
	}
	framegraph.Logger().Info("rust: device opened",
		"gpu", b.gpuInfo.Device,
		"backend", b.gpuInfo.BackendType,
		"type", b.gpuInfo.AdapterType,
		"vendor", b.gpuInfo.Vendor,
		"vendorID", fmt.Sprintf("0x%04X", b.gpuInfo.VendorID),
		"deviceID", fmt.Sprintf("0x%04X", b.gpuInfo.DeviceID))
}

func backendTypeToString(bt wgpu.BackendType) string {
	switch bt {
	case wgpu.BackendTypeNull:
		return "Null"
	case wgpu.BackendTypeWebGPU:
		return "WebGPU"
	case wgpu.BackendTypeD3D11:
		return "D3D11"
	case wgpu.BackendTypeD3D12:
		return "D3D12"
	case wgpu.BackendTypeMetal:
		return "Metal"
	case wgpu.BackendTypeVulkan:
		return "Vulkan"
	case wgpu.BackendTypeOpenGL:
		return "OpenGL"
	case wgpu.BackendTypeOpenGLES:
		return "OpenGLES"
	default:
		return "Unknown"
	}
}

func adapterTypeToString(at wgpu.AdapterType) string {
	switch at {
	case wgpu.AdapterTypeDiscreteGPU:
		return "DiscreteGPU"
	case wgpu.AdapterTypeIntegratedGPU:
		return "IntegratedGPU"
	case wgpu.AdapterTypeCPU:
		return "CPU"
	default:
		return "Unknown"
	}
}
