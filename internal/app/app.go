package app

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/bondar-aleksandr/netinspect/internal/device"
	"github.com/bondar-aleksandr/netinspect/internal/logger"
)

type App struct {
	Logger     *zap.SugaredLogger
	CmdCache   map[string][]device.CommandSpec
	ConfigPath string
	Config     *Config
}

// Config is the app-level configuration loaded from config.yml.
type Config struct {
	Client struct {
		// SSHTimeout is the generic backend dial timeout, seconds. The
		// Huawei backend keeps its fixed 30s timeout.
		SSHTimeout int64 `yaml:"ssh_timeout"`
		// Verbose echoes device output into the log stream.
		Verbose bool `yaml:"verbose"`
	}
	Data struct {
		InputFolder      string `yaml:"input_folder"`
		DevicesData      string `yaml:"devices_data"`
		OutputFolder     string `yaml:"output_folder"`
		ResultsData      string `yaml:"results_data"`
		TranscriptFolder string `yaml:"transcript_folder"`
	}
}

func NewApp(cfgPath string) (*App, error) {
	app := &App{
		CmdCache:   make(map[string][]device.CommandSpec),
		ConfigPath: cfgPath,
	}
	app.Logger = logger.InitLogger(cfgPath)
	if err := app.readConfig(); err != nil {
		return nil, err
	}
	if err := app.prepareDirectories(); err != nil {
		return nil, err
	}
	return app, nil
}

// this func Unmarshals config.yml content to the Config variable
func (a *App) readConfig() error {
	a.Logger.Info("Reading config...")

	f, err := os.Open(a.ConfigPath)
	if err != nil {
		a.Logger.Errorf("Cannot read app config file because of: %s", err)
		return err
	}
	defer f.Close()

	cfg := &Config{}

	decoder := yaml.NewDecoder(f)
	if err = decoder.Decode(cfg); err != nil {
		a.Logger.Errorf("Cannot parse app config file because of: %s", err)
		return err
	}
	a.Config = cfg
	a.Logger.Info("Reading config done")
	return nil
}

// BuildCmdCache receives the device inventory rows, finds unique command
// filenames, and populates CmdCache with filename -> ordered command list.
// One command per line; blank lines are skipped.
func (a *App) BuildCmdCache(cmdFiles []string) error {
	a.Logger.Info("Building cmd cache...")

	for _, name := range cmdFiles {
		if _, ok := a.CmdCache[name]; ok {
			continue
		}
		commandsFile, err := os.Open(filepath.Join(a.Config.Data.InputFolder, name))
		if err != nil {
			a.Logger.Errorf("Unable to open commands file: %s", name)
			return err
		}

		var commands []device.CommandSpec
		scanner := bufio.NewScanner(commandsFile)
		for scanner.Scan() {
			cmd := strings.TrimSpace(scanner.Text())
			if cmd == "" {
				continue
			}
			commands = append(commands, device.CommandSpec{Command: cmd})
		}
		err = scanner.Err()
		commandsFile.Close()
		if err != nil {
			return fmt.Errorf("reading commands file %s: %w", name, err)
		}
		a.CmdCache[name] = commands
	}
	a.Logger.Info("Building cmd cache done")
	return nil
}

// this func creates directories for outputs and session transcripts if they
// don't exist yet
func (a *App) prepareDirectories() error {
	for _, dir := range []string{a.Config.Data.OutputFolder, a.Config.Data.TranscriptFolder} {
		if dir == "" {
			continue
		}
		_, err := os.Stat(dir)
		if os.IsNotExist(err) {
			if errDir := os.MkdirAll(dir, os.ModePerm); errDir != nil {
				a.Logger.Errorf("Cannot create directory %q because of: %q", dir, errDir)
				return errDir
			}
			a.Logger.Infof("Created directory %q successfully", dir)
		} else {
			a.Logger.Infof("Directory %q already there", dir)
		}
	}
	return nil
}
