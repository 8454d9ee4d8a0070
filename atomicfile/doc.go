/*
Package atomicfile writes a file so that readers see either the old
content or the complete new content, never a partial write.

Data goes to a temporary file in the destination directory. Close()
syncs it and renames it over the destination. If anything fails along
the way the temporary file is removed and the destination is left
untouched.

	func saveContainer(path string, d []byte) error {
		return atomicfile.WriteFile(path, func(w io.Writer) error {
			_, err := w.Write(d)
			return err
		})
	}

Or, when the writes are spread out:

	f, err := atomicfile.New(path)
	if err != nil {
		return err
	}
	// no-op after a successful Close()
	defer f.RemoveIfNotClosed()
	...
	return f.Close()

Some references:
  - https://www.slideshare.net/nan1nan1/eat-my-data
  - https://lwn.net/Articles/457667/
*/
package atomicfile
