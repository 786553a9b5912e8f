package packer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hansbonini/psutools/pkg"
	"github.com/hansbonini/psutools/pkg/common"
)

// IconSysFilename is the metadata file the PS2 browser reads from a save
// folder. When synthesis is requested and the folder already provides one,
// the on-disk file wins.
const IconSysFilename = "icon.sys"

// Packer assembles a folder into a PSU archive. Warnf receives one line per
// skipped include entry; Progress is called once per packed file. Both are
// optional.
type Packer struct {
	Warnf    func(format string, args ...interface{})
	Progress func(done, total int, name string)
}

// New creates a packer that routes warnings to the process logger
func New() *Packer {
	return &Packer{Warnf: common.LogWarn}
}

// packFile is one selected source file
type packFile struct {
	name string
	path string
}

// Pack builds the archive described by the configuration from the source
// folder and writes it to the destination path. The destination is written
// atomically: a temporary file in the destination directory is renamed over
// the final path only after a complete serialization.
func (p *Packer) Pack(folder, destination string, config *Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	files, err := p.selectFiles(folder, config)
	if err != nil {
		return err
	}

	psu, err := p.buildArchive(folder, files, config)
	if err != nil {
		return err
	}

	return p.writeArchive(psu, destination)
}

// selectFiles builds the ordered file list per the include/exclude rules.
// psu.toml is never packed regardless of configuration.
func (p *Packer) selectFiles(folder string, config *Config) ([]packFile, error) {
	var files []packFile

	if len(config.Include) > 0 {
		for _, name := range config.Include {
			if strings.EqualFold(name, ConfigFilename) {
				p.warnf("%s: %q", common.WarnConfigNeverPacks, name)
				continue
			}
			if strings.ContainsAny(name, `/\`) {
				p.warnf("%s: %q", common.WarnIncludeHasPath, name)
				continue
			}
			info, err := os.Stat(filepath.Join(folder, name))
			if err != nil {
				p.warnf("%s: %q", common.WarnIncludeMissing, name)
				continue
			}
			if !info.Mode().IsRegular() {
				continue
			}
			files = append(files, packFile{name: name, path: filepath.Join(folder, name)})
		}
		return files, nil
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %q: %w", folder, err)
	}
	excluded := make(map[string]bool, len(config.Exclude))
	for _, name := range config.Exclude {
		excluded[name] = true
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.EqualFold(name, ConfigFilename) || excluded[name] {
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		files = append(files, packFile{name: name, path: filepath.Join(folder, name)})
	}
	return files, nil
}

// buildArchive assembles the transient PSU model: a root directory entry
// sized to the file count plus the "." and ".." pseudo-entries, followed by
// one file entry per selected file. With a configured timestamp every entry
// carries it; otherwise directories carry the zero datetime and files carry
// their filesystem modification time.
func (p *Packer) buildArchive(folder string, files []packFile, config *Config) (*pkg.PSUFile, error) {
	iconSys, err := p.synthesizeIconSys(files, config)
	if err != nil {
		return nil, err
	}

	total := len(files)
	if iconSys != nil {
		total++
	}

	configured := common.Timestamp{}
	if config.Timestamp != nil {
		configured = common.NewTimestamp(*config.Timestamp)
	}

	rootSize, err := common.SafeIntToUint32(total + 2)
	if err != nil {
		return nil, err
	}

	psu := &pkg.PSUFile{}
	for _, name := range []string{config.Name, ".", ".."} {
		entry := pkg.PSUEntry{
			Kind:     pkg.PSUDirectoryID,
			Created:  configured,
			Modified: configured,
			Name:     name,
		}
		if name == config.Name {
			entry.Size = rootSize
		}
		psu.Entries = append(psu.Entries, entry)
	}

	done := 0
	appendFile := func(name string, data []byte, created, modified common.Timestamp) error {
		size, err := common.SafeIntToUint32(len(data))
		if err != nil {
			return fmt.Errorf("%q is too large to pack: %w", name, err)
		}
		psu.Entries = append(psu.Entries, pkg.PSUEntry{
			Kind:     pkg.PSUFileID,
			Size:     size,
			Created:  created,
			Modified: modified,
			Name:     name,
			Data:     data,
		})
		done++
		p.progress(done, total, name)
		return nil
	}

	for _, file := range files {
		data, err := os.ReadFile(file.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", file.path, err)
		}
		created, modified := configured, configured
		if config.Timestamp == nil {
			info, err := os.Stat(file.path)
			if err != nil {
				return nil, fmt.Errorf("failed to stat %q: %w", file.path, err)
			}
			stamp := common.NewTimestamp(info.ModTime())
			created, modified = stamp, stamp
		}
		if err := appendFile(file.name, data, created, modified); err != nil {
			return nil, err
		}
	}

	if iconSys != nil {
		if err := appendFile(IconSysFilename, iconSys, configured, configured); err != nil {
			return nil, err
		}
	}

	return psu, nil
}

// synthesizeIconSys encodes the configured icon.sys block, unless synthesis
// is not requested or the folder already supplies its own icon.sys file.
func (p *Packer) synthesizeIconSys(files []packFile, config *Config) ([]byte, error) {
	if config.IconSys == nil {
		return nil, nil
	}
	for _, file := range files {
		if strings.EqualFold(file.name, IconSysFilename) {
			return nil, nil
		}
	}

	var buffer bytes.Buffer
	if err := pkg.NewIconSysEncoder().Encode(config.IconSys.Model(), &buffer); err != nil {
		return nil, fmt.Errorf("failed to synthesize icon.sys: %w", err)
	}
	return buffer.Bytes(), nil
}

// writeArchive serializes the model and moves it into place
func (p *Packer) writeArchive(psu *pkg.PSUFile, destination string) error {
	var buffer bytes.Buffer
	if err := pkg.NewPSUEncoder().Encode(psu, &buffer); err != nil {
		return fmt.Errorf("%s: %w", common.ErrFailedToWriteArchive, err)
	}

	directory := filepath.Dir(destination)
	temp, err := os.CreateTemp(directory, ".psu-pack-*")
	if err != nil {
		return fmt.Errorf("%s: %w", common.ErrFailedToCreateOutputFile, err)
	}
	tempName := temp.Name()

	if _, err := temp.Write(buffer.Bytes()); err != nil {
		temp.Close()
		os.Remove(tempName)
		return fmt.Errorf("%s: %w", common.ErrFailedToWriteArchive, err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("%s: %w", common.ErrFailedToWriteArchive, err)
	}
	if err := os.Rename(tempName, destination); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("%s: %w", common.ErrFailedToCreateOutputFile, err)
	}
	return nil
}

func (p *Packer) warnf(format string, args ...interface{}) {
	if p.Warnf != nil {
		p.Warnf(format, args...)
	}
}

func (p *Packer) progress(done, total int, name string) {
	if p.Progress != nil {
		p.Progress(done, total, name)
	}
}
