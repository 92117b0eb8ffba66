package app

import (
	"sparkcalc/sparkos/calc"
	logclient "sparkcalc/sparkos/client/logger"
	"sparkcalc/sparkos/kernel"
	"sparkcalc/sparkos/proto"
)

const scriptRetryTicks = 1000

// scriptTask hands a boot-time key script to the calculator task.
type scriptTask struct {
	script  string
	calcCap kernel.Capability
	logCap  kernel.Capability
}

func newScriptTask(script string, calcCap, logCap kernel.Capability) *scriptTask {
	return &scriptTask{script: script, calcCap: calcCap, logCap: logCap}
}

func (t *scriptTask) Run(ctx *kernel.Context) {
	chunks, err := scriptChunks(t.script, kernel.MaxMessageBytes-1)
	if err != nil {
		_ = logclient.Logf(ctx, t.logCap, "script: %v", err)
		return
	}
	for _, chunk := range chunks {
		payload := proto.AppSelectPayload(proto.AppCalc, chunk)
		if res := ctx.SendToCapRetry(t.calcCap, uint16(proto.MsgAppSelect), payload, kernel.Capability{}, scriptRetryTicks); res != kernel.SendOK {
			_ = logclient.Logf(ctx, t.logCap, "script: %s", res)
			return
		}
	}
}

// scriptChunks splits a key script into pieces of at most limit bytes without
// cutting a key in half.
func scriptChunks(script string, limit int) ([]string, error) {
	toks, err := calc.ParseKeys(script)
	if err != nil {
		return nil, err
	}
	var out []string
	var cur string
	for _, tok := range toks {
		s := tok.String()
		if len(cur)+len(s) > limit && cur != "" {
			out = append(out, cur)
			cur = ""
		}
		cur += s
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out, nil
}
