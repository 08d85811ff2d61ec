package config

type WorkerKeyStruct struct {
	ResultMailQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ResultMailQueue: "result_mail_queue",
}
