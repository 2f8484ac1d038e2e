package shell

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cjoudrey/gluahttp"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("trove_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

func luaArgs(L *lua.LState) []string {
	lv := strings.TrimSpace(L.ToString(1))
	if lv == "" {
		return nil
	}
	return strings.Split(lv, " ")
}

func Set(L *lua.LState) int {
	sc := getShell(L)
	r, err := sc.set(&shellcmd{
		cmd:  "set",
		args: luaArgs(L),
	})
	if err != nil {
		log.Err(err).Msg("error-executing-set")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	L.Push(lua.LString(r.message))
	// return number of results pushed to stack.
	return 1
}

func Load(L *lua.LState) int {
	sc := getShell(L)
	r, err := sc.load(&shellcmd{
		cmd:  "load",
		args: luaArgs(L),
	})
	if err != nil {
		log.Err(err).Msg("error-executing-load")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	L.Push(lua.LString(r.message))
	// return number of results pushed to stack.
	return 1
}

func Show(L *lua.LState) int {
	sc := getShell(L)
	r, err := sc.show(&shellcmd{cmd: "show"})
	if err != nil {
		log.Err(err).Msg("error-executing-show")
		return 0
	}
	L.Push(lua.LString(r.message))
	return 1
}

func Gen(L *lua.LState) int {
	sc := getShell(L)
	r, err := sc.generate(&shellcmd{
		cmd:  "gen",
		args: luaArgs(L),
	})
	if err != nil {
		log.Err(err).Msg("error-executing-gen")
		return 0
	}
	L.Push(lua.LString(r.message))
	return 1
}

func Solve(L *lua.LState) int {
	sc := getShell(L)
	r, err := sc.solve(&shellcmd{cmd: "solve"})
	if err != nil {
		log.Err(err).Msg("error-executing-solve")
		return 0
	}
	L.Push(lua.LString(r.message))
	return 1
}

func Play(L *lua.LState) int {
	sc := getShell(L)
	r, err := sc.play(&shellcmd{
		cmd:  "play",
		args: luaArgs(L),
	})
	if err != nil {
		log.Err(err).Msg("error-executing-play")
		return 0
	}
	L.Push(lua.LString(r.message))
	return 1
}

func Seed(L *lua.LState) int {
	sc := getShell(L)
	r, err := sc.setSeed(&shellcmd{
		cmd:  "seed",
		args: luaArgs(L),
	})
	if err != nil {
		log.Err(err).Msg("error-executing-seed")
		return 0
	}
	L.Push(lua.LString(r.message))
	return 1
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for script")
	}

	file := cmd.args[0]
	if _, err := os.Stat(file); err != nil {
		// Fall back to the configured data directory.
		if alt := filepath.Join(sc.cfg.DataPath(), file); alt != file {
			if _, err := os.Stat(alt); err == nil {
				file = alt
			}
		}
	}

	L := lua.NewState()
	defer L.Close()

	// Scripts get `local http = require("http")` and
	// `local json = require("json")` for free.
	L.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{}).Loader)
	luajson.Preload(L)

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal("trove_shell", lsc)
	L.SetGlobal("trove_load", L.NewFunction(Load))
	L.SetGlobal("trove_show", L.NewFunction(Show))
	L.SetGlobal("trove_gen", L.NewFunction(Gen))
	L.SetGlobal("trove_solve", L.NewFunction(Solve))
	L.SetGlobal("trove_play", L.NewFunction(Play))
	L.SetGlobal("trove_set", L.NewFunction(Set))
	L.SetGlobal("trove_seed", L.NewFunction(Seed))

	if err := L.DoFile(file); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return nil, nil
}
