package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 是全局的logrus实例；InitLogger之前也可以直接用（输出到stderr），测试里不必初始化
var Log = logrus.New()

// InitLogger 初始化全局Logger：JSON格式，同时输出到控制台和按大小滚动的日志文件
// logFile为空时只输出到控制台
func InitLogger(logFile, level string) {
	Log = logrus.New()

	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})

	var out io.Writer = os.Stdout
	if logFile != "" {
		// 单文件10MB，保留3个备份，28天，旧文件gzip压缩
		rotated := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotated)
	}
	Log.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}
