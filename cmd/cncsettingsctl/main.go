// Command cncsettingsctl is an offline tool for inspecting and editing
// a controller's persisted settings blob (settings.Store's on-disk
// format) without a live machine attached: init a fresh blob, dump it
// to TOML for version control or diffing, load an edited TOML file
// back in, or apply a batch of "$N=V" wire commands the same way the
// console command parser would.
package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"tinygo.org/x/cncmotion/axis"
	"tinygo.org/x/cncmotion/nvm"
	"tinygo.org/x/cncmotion/settings"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "cncsettingsctl:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: cncsettingsctl <init|dump|load|set> --nvm <path> [args...]")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "init":
		return runInit(rest)
	case "dump":
		return runDump(rest)
	case "load":
		return runLoad(rest)
	case "set":
		return runSet(rest)
	default:
		return errors.Errorf("unknown subcommand %q", cmd)
	}
}

// flags is a minimal "--name value" parser, avoiding flag.FlagSet's
// global state so run can be called repeatedly in tests.
func flags(args []string) (map[string]string, []string) {
	out := map[string]string{}
	var positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if len(a) > 2 && a[:2] == "--" {
			name := a[2:]
			if i+1 < len(args) && !(len(args[i+1]) > 2 && args[i+1][:2] == "--") {
				out[name] = args[i+1]
				i++
				continue
			}
			out[name] = ""
			continue
		}
		positional = append(positional, a)
	}
	return out, positional
}

func openStore(path string, nAxis int) (*settings.Store, error) {
	data, err := os.ReadFile(path)
	var dev *nvm.RAMDevice
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		dev = nvm.NewRAMDevice(4096)
	} else {
		dev = nvm.NewRAMDeviceFromBytes(data)
	}
	return settings.NewStore(dev, nAxis), nil
}

func saveStore(path string, st *settings.Store) error {
	dev, ok := st.Dev.(*nvm.RAMDevice)
	if !ok {
		return errors.New("internal: store device is not a RAMDevice")
	}
	return os.WriteFile(path, dev.Bytes(), 0o644)
}

// runInit writes a fresh, factory-default settings blob.
func runInit(args []string) error {
	f, _ := flags(args)
	path := f["nvm"]
	if path == "" {
		return errors.New("init requires --nvm <path>")
	}
	nAxis, err := axisCount(f)
	if err != nil {
		return err
	}

	dev := nvm.NewRAMDevice(4096)
	st := settings.NewStore(dev, nAxis)
	defaults := settings.Defaults(nAxis)
	if err := st.WriteGlobal(defaults); err != nil {
		return errors.Wrap(err, "writing defaults")
	}
	return saveStore(path, st)
}

// runDump reads the persisted settings and writes them as TOML.
func runDump(args []string) error {
	f, _ := flags(args)
	path := f["nvm"]
	if path == "" {
		return errors.New("dump requires --nvm <path>")
	}
	nAxis, err := axisCount(f)
	if err != nil {
		return err
	}

	st, err := openStore(path, nAxis)
	if err != nil {
		return err
	}
	s, status := st.Init()
	if status != settings.StatusOK {
		fmt.Fprintln(os.Stderr, "cncsettingsctl: warning:", status)
	}
	if _, debug := f["debug"]; debug {
		spew.Fdump(os.Stderr, s)
	}

	enc := toml.NewEncoder(os.Stdout)
	return enc.Encode(s)
}

// runLoad decodes a TOML file and persists it as the global settings
// record.
func runLoad(args []string) error {
	f, positional := flags(args)
	path := f["nvm"]
	if path == "" || len(positional) == 0 {
		return errors.New("usage: load --nvm <path> <settings.toml>")
	}
	nAxis, err := axisCount(f)
	if err != nil {
		return err
	}

	var s settings.Settings
	if _, err := toml.DecodeFile(positional[0], &s); err != nil {
		return errors.Wrapf(err, "decoding %s", positional[0])
	}
	s.NAxis = nAxis

	st, err := openStore(path, nAxis)
	if err != nil {
		return err
	}
	if err := st.WriteGlobal(s); err != nil {
		return errors.Wrap(err, "writing settings")
	}
	return saveStore(path, st)
}

// runSet applies one or more "$N=V" wire commands, tokenizing the
// remaining arguments as a single command line the way a console
// session would if several settings were pasted on one line.
func runSet(args []string) error {
	f, positional := flags(args)
	path := f["nvm"]
	if path == "" || len(positional) == 0 {
		return errors.New("usage: set --nvm <path> '$100=80.0' '$101=80.0' ...")
	}
	nAxis, err := axisCount(f)
	if err != nil {
		return err
	}

	st, err := openStore(path, nAxis)
	if err != nil {
		return err
	}
	s, status := st.Init()
	if status != settings.StatusOK {
		fmt.Fprintln(os.Stderr, "cncsettingsctl: warning:", status)
	}

	for _, arg := range positional {
		cmds, err := settings.SplitCommandLine(arg)
		if err != nil {
			return err
		}
		for _, cmd := range cmds {
			id, value, err := settings.ParseSetting(cmd)
			if err != nil {
				return err
			}
			if res := settings.Store(&s, id, value, settings.Hooks{}); res != settings.StatusOK {
				return errors.Errorf("$%d=%v rejected: %s", id, value, res)
			}
		}
	}

	if err := st.WriteGlobal(s); err != nil {
		return errors.Wrap(err, "writing settings")
	}
	return saveStore(path, st)
}

func axisCount(f map[string]string) (int, error) {
	v, ok := f["naxis"]
	if !ok {
		return 3, nil
	}
	n := 0
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, errors.Wrapf(err, "bad --naxis %q", v)
	}
	if n < 3 || n > axis.MaxAxes {
		return 0, errors.Errorf("--naxis must be between 3 and %d", axis.MaxAxes)
	}
	return n, nil
}
