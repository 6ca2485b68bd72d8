// Package lumipanel provides a Go library for driving Lumipanel 64x64
// RGB LED-matrix displays over Bluetooth Low Energy.
//
// # Overview
//
// This library implements the Lumipanel GATT transfer protocol. It lets you
// scan for panels, connect, push still images and animations as RGB565
// frames, and issue control commands (brightness, display mode, clock
// synchronization, ping).
//
// # Protocol Architecture
//
// The panel firmware exposes one primary GATT service with five
// characteristics:
//
//   - pixel payload (write without response): raw RGB565 frame chunks
//   - control (write with response): 1-byte opcodes plus short arguments
//   - status (notify): 1-byte result codes from the firmware
//   - clock config (write with response): epoch seconds + display flags
//   - animation meta (write with response): frame count + per-frame durations
//
// A frame transfer is bracketed by FRAME_BEGIN and FRAME_COMMIT on the
// control channel; the pixel data itself is streamed unacknowledged in
// MTU-sized chunks for throughput, paced by a fixed inter-chunk delay.
//
// # Connection Flow
//
//  1. Radio permissions are requested and the adapter is enabled
//  2. A filtered scan discovers panels advertising the Lumipanel service
//  3. Connect performs GATT discovery of the five characteristics
//  4. An MTU of 247 bytes is requested; the usable chunk size is MTU-3
//
// # Quick Start
//
//	mgr := lumipanel.NewManager(lumipanel.NewBLECentral())
//	if ok, err := mgr.RequestPermissions(); !ok {
//	    log.Fatal(err)
//	}
//	devices, unsub := mgr.SubscribeDevices()
//	defer unsub()
//	mgr.StartScan()
//
//	var dev lumipanel.DiscoveredDevice
//	for set := range devices {
//	    if len(set) > 0 {
//	        dev = set[0]
//	        break
//	    }
//	}
//	mgr.StopScan()
//
//	if err := mgr.Connect(dev); err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Disconnect()
//
//	engine := lumipanel.NewEngine(mgr)
//	seq, _ := lumipanel.NewEncoder().EncodeBytes(pngData)
//	err := engine.SendSequence(seq)
//
// # Supported Features
//
//   - Filtered BLE scan with per-device RSSI refresh
//   - Still images (stretch, letterbox, crop resize policies)
//   - GIF animations with per-frame timing, overrides and clamping
//   - Brightness scaling, BT.709 grayscale, Floyd-Steinberg dithering
//   - Brightness, display mode, clear, abort and ping commands
//   - Clock synchronization (24h/seconds/date flags)
//   - Connection-state, device, error and transfer-progress streams
//
// # Thread Safety
//
// The Manager guards its link state with a mutex and is safe to use from
// multiple goroutines. Scan, connect and transfer operations are not
// internally serialized against each other; callers are expected to issue
// one logical operation at a time, as each asserts the connection state it
// needs before touching the link.
package lumipanel
