// Package device provides the persistent registry of configured audio devices.
//
// A device record is written once a bridge has verified a device on the
// network (name, model, serial, MAC, base URL) and is read back on startup
// so the bridge can restore its runtime devices without asking the user to
// run setup again.
//
// # Architecture
//
//	┌──────────────────┐    ┌──────────────────┐    ┌──────────────────┐
//	│     Registry     │    │    Repository    │    │    Validation    │
//	│   (registry.go)  │───▶│  (repository.go) │    │ (validation.go)  │
//	│                  │    │                  │    │                  │
//	│ • CRUD + save    │    │ • SQLite queries │    │ • ID / name      │
//	│ • In-memory cache│    │ • Unique IP      │    │ • IP / base URL  │
//	└──────────────────┘    └──────────────────┘    └──────────────────┘
//	                                 │
//	                                 ▼
//	                      ┌──────────────────────┐
//	                      │   SQLite Database    │
//	                      │ (audio_devices table)│
//	                      └──────────────────────┘
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db)
//	registry := device.NewRegistry(repo)
//	registry.SetLogger(log)
//
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	err := registry.SaveDevice(ctx, &device.Device{
//	    ID:      "sony_1234567",
//	    Name:    "Living Room Receiver",
//	    IP:      "192.168.1.40",
//	    BaseURL: "http://192.168.1.40:10000/sony",
//	})
//
// # Errors
//
// Operations return the sentinel errors in errors.go, wrapped where extra
// context helps; compare with errors.Is.
package device
