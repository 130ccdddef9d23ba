package metaqnl

import (
	"fmt"
	"os"

	"github.com/dekarrin/rezi"
)

// MarshalBinary implements encoding.BinaryMarshaler (§2.4), delegating the
// actual byte layout to rezi.EncBinary the way dekarrin/tunaq's sqlite DAO
// encodes its *game.State before writing it to a column.
func (cp VocabularyCheckpoint) MarshalBinary() ([]byte, error) {
	return rezi.EncBinary(cp), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler (§2.4). It reports
// an error if data contains trailing bytes rezi did not consume, the same
// "REZI decoded byte count mismatch" check tunaq's DAO performs after
// rezi.DecBinary.
func (cp *VocabularyCheckpoint) UnmarshalBinary(data []byte) error {
	n, err := rezi.DecBinary(data, cp)
	if err != nil {
		return fmt.Errorf("rezi decode: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("rezi decoded byte count mismatch; consumed %d/%d bytes", n, len(data))
	}
	return nil
}

// SaveCheckpointFile snapshots c's vocabularies and writes them to path
// rezi-encoded. This, together with LoadCheckpointFile, is the one place in
// this package that performs file I/O, matching §6/§7's "no operation of
// this core performs I/O except the optional persistence of the
// vocabulary".
func (c *Context) SaveCheckpointFile(path string) error {
	data, err := c.Checkpoint().MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	c.logger.Info("persisted vocabulary checkpoint", "path", path)
	return nil
}

// LoadCheckpointFile reads a checkpoint previously written by
// SaveCheckpointFile and loads it into c via LoadCheckpoint, which enforces
// the prefix-extension contract of §5/§7.
func (c *Context) LoadCheckpointFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var cp VocabularyCheckpoint
	if err := cp.UnmarshalBinary(data); err != nil {
		return err
	}
	return c.LoadCheckpoint(cp)
}
