package testsupport

// WhisperTSVScript mimics the whisper CLI: it writes a two-row TSV named after
// the input file into --output_dir, alongside a .txt artifact.
const WhisperTSVScript = `#!/bin/sh
src="$1"
shift
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --output_dir) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
base=$(basename "$src")
base="${base%.*}"
printf 'start\tend\ttext\n0.0\t1.5\thello world\n1.5\t3.0\thow are you\n' > "$out/$base.tsv"
printf 'hello world\nhow are you\n' > "$out/$base.txt"
`

// WhisperFailScript exits non-zero after writing to stderr.
const WhisperFailScript = `#!/bin/sh
echo "RuntimeError: model failed to load" >&2
exit 3
`

// WhisperNoOutputScript exits successfully without writing an artifact.
const WhisperNoOutputScript = `#!/bin/sh
exit 0
`

// WhisperSlowScript blocks well past any test timeout.
const WhisperSlowScript = `#!/bin/sh
exec sleep 30
`
