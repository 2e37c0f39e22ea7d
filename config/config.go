package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	TTS    TTSConfig    `yaml:"tts"`
	Render RenderConfig `yaml:"render"`
	Upload UploadConfig `yaml:"upload"`
	Paths  PathsConfig  `yaml:"paths"`
}

type TTSConfig struct {
	Model string `yaml:"model"`
	Voice string `yaml:"voice"`
}

type RenderConfig struct {
	PythonBin string `yaml:"python_bin"`
	SceneFile string `yaml:"scene_file"`
	SceneName string `yaml:"scene_name"`
	MediaDir  string `yaml:"media_dir"`
	FPS       int    `yaml:"fps"`
}

type UploadConfig struct {
	TokenFile    string `yaml:"token_file"`
	Privacy      string `yaml:"privacy"`
	DefaultTitle string `yaml:"default_title"`
	CategoryID   string `yaml:"category_id"`
}

type PathsConfig struct {
	Videos string `yaml:"videos"`
}

// Load reads a yaml config file and returns a Config struct
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TTS.Model == "" {
		c.TTS.Model = "tts-1"
	}
	if c.TTS.Voice == "" {
		c.TTS.Voice = "alloy"
	}
	if c.Render.PythonBin == "" {
		c.Render.PythonBin = "python3"
	}
	if c.Render.SceneFile == "" {
		c.Render.SceneFile = "animate_code.py"
	}
	if c.Render.SceneName == "" {
		c.Render.SceneName = "CodeScene"
	}
	if c.Render.MediaDir == "" {
		c.Render.MediaDir = "media"
	}
	if c.Render.FPS == 0 {
		c.Render.FPS = 30
	}
	if c.Upload.TokenFile == "" {
		c.Upload.TokenFile = "data/token.json"
	}
	if c.Upload.Privacy == "" {
		c.Upload.Privacy = "private"
	}
	if c.Upload.DefaultTitle == "" {
		c.Upload.DefaultTitle = "Code walkthrough"
	}
	if c.Upload.CategoryID == "" {
		c.Upload.CategoryID = "22"
	}
	if c.Paths.Videos == "" {
		c.Paths.Videos = "static/videos"
	}
}
