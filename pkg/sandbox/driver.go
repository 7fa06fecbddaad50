package sandbox

// driverSource is a standalone Python program, compiled into this
// binary as a string constant. It owns every import the untrusted
// code might need (math/itertools/collections, plus numpy/scipy/cv2
// when present on the host) and is responsible for all JSON framing
// over stdio. No driver state crosses a call boundary: a fresh temp
// file is written and a fresh child process is spawned every time.
const driverSource = `
import json
import sys
import traceback
import math
import itertools
from collections import Counter, deque, defaultdict
from typing import List, Optional, Tuple, Any, Dict, Set
import copy

try:
    import numpy as np
except ImportError:
    np = None

try:
    import scipy
    import scipy.ndimage
except ImportError:
    scipy = None

try:
    import cv2
except ImportError:
    cv2 = None

def convert_to_numpy(obj):
    if np is None:
        return obj
    if isinstance(obj, list):
        return np.array(obj)
    return obj

def sanitize_output(obj):
    if isinstance(obj, list):
        return [sanitize_output(x) for x in obj]
    if isinstance(obj, tuple):
        return tuple(sanitize_output(x) for x in obj)
    if isinstance(obj, dict):
        return {k: sanitize_output(v) for k, v in obj.items()}
    if np and isinstance(obj, (np.integer, int)):
        return int(obj)
    if np and isinstance(obj, (np.floating, float)):
        return float(obj)
    if np and isinstance(obj, np.ndarray):
        return sanitize_output(obj.tolist())
    return obj

def main():
    try:
        input_data = sys.stdin.read()
        if not input_data:
            raise ValueError("No input received on stdin")

        payload = json.loads(input_data)
        code = payload["code"]
        inp_raw = payload["input"]

        inp = convert_to_numpy(inp_raw)

        local_scope = {
            "np": np,
            "cv2": cv2,
            "scipy": scipy,
            "Counter": Counter,
            "deque": deque,
            "defaultdict": defaultdict,
            "List": List,
            "Optional": Optional,
            "Tuple": Tuple,
            "Any": Any,
            "Dict": Dict,
            "Set": Set,
            "copy": copy.copy,
            "deepcopy": copy.deepcopy,
            "gcd": math.gcd,
            "math": math,
            "itertools": itertools,
            "Grid": List[List[int]],
        }

        exec(code, local_scope)

        if "solver" not in local_scope:
            raise RuntimeError("No 'solver' function defined in code.")

        solver = local_scope["solver"]
        if not callable(solver):
            raise RuntimeError("'solver' is not callable.")

        raw_out = solver(inp)
        out = sanitize_output(raw_out)

        json.dump({"ok": True, "output": out}, sys.stdout)

    except Exception as e:
        json.dump(
            {
                "ok": False,
                "error": f"{type(e).__name__}: {str(e)}",
                "traceback": traceback.format_exc(),
            },
            sys.stdout,
        )
        print(f"Sandbox Error: {e}", file=sys.stderr)
        traceback.print_exc(file=sys.stderr)

if __name__ == "__main__":
    main()
`
