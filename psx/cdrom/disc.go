// Package cdrom implements the CD-ROM drive's two-stage command/
// response protocol and the disc it reads sectors from. Grounded on
// the original
// source's cdrom/disc.rs for the exact MSF addressing arithmetic and
// cdrom/commands.rs for per-command response bytes and delays.
package cdrom

const (
	sectorsPerSecond = 75
	bytesPerSector   = 2352
	leadInSectors    = 150
)

// Location is a BCD-decoded Minutes:Seconds:Sectors disc address.
type Location struct {
	Minutes, Seconds, Sectors int
}

// NewLocationBCD builds a Location from the packed-BCD bytes the guest
// supplies to SetLoc.
func NewLocationBCD(m, s, f uint8) Location {
	return Location{bcdToDec(m), bcdToDec(s), bcdToDec(f)}
}

func bcdToDec(v uint8) int { return int(v>>4)*10 + int(v&0xF) }
func decToBCD(v int) uint8 { return uint8(v/10<<4 | v%10) }

// ByteOffset converts the location to a byte offset into the disc
// image: `(M*60*75 + S*75 + F - 150) * 2352`.
func (l Location) ByteOffset() int {
	totalSeconds := l.Minutes*60 + l.Seconds
	totalSectors := totalSeconds*sectorsPerSecond + l.Sectors - leadInSectors
	return totalSectors * bytesPerSector
}

// PlusSectors returns the location advanced by n sectors, carrying into
// seconds/minutes as needed.
func (l Location) PlusSectors(n int) Location {
	sectors := (l.Sectors + n) % sectorsPerSecond
	rawSeconds := l.Seconds + (l.Sectors+n)/sectorsPerSecond
	seconds := rawSeconds % 60
	minutes := l.Minutes + rawSeconds/60
	return Location{minutes, seconds, sectors}
}

// SectorSize selects how much of a 2352-byte raw sector read_sector
// returns.
type SectorSize int

const (
	SectorDataOnly   SectorSize = 2048
	SectorWholeSector SectorSize = 2352
)

// Track is one contiguous run of sector bytes.
type Track struct {
	Data []byte
}

// Disc is an ordered list of tracks, addressed as one contiguous byte
// stream.
type Disc struct {
	Tracks []Track
	Title  string
}

func NewDisc(title string) *Disc {
	return &Disc{Title: title}
}

func (d *Disc) AddTrack(data []byte) {
	d.Tracks = append(d.Tracks, Track{Data: data})
}

func (d *Disc) TrackCount() int { return len(d.Tracks) }

func (d *Disc) trackOfOffset(offset int) (*Track, int) {
	total := 0
	for i := range d.Tracks {
		if offset >= total && offset < total+len(d.Tracks[i].Data) {
			return &d.Tracks[i], total
		}
		total += len(d.Tracks[i].Data)
	}
	return nil, 0
}

// ReadSector returns either the 2048-byte data payload (skipping the
// 24-byte Mode2/Form1 header) or the full 2352-byte raw sector.
func (d *Disc) ReadSector(loc Location, size SectorSize) []byte {
	offset := loc.ByteOffset()
	track, trackOffset := d.trackOfOffset(offset)
	if track == nil {
		return make([]byte, size)
	}
	sectorAddr := offset - trackOffset
	if size == SectorDataOnly {
		start := sectorAddr + 24
		return track.Data[start : start+int(size)]
	}
	return track.Data[sectorAddr : sectorAddr+int(size)]
}
